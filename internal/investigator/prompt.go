package investigator

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadscope/internal/model"
)

const (
	maxPromptEvidence = 30
	maxSnippetLen     = 500
)

// defaultSystemPrompt is the investigation protocol sent as the system
// block. Callers can override it per run.
const defaultSystemPrompt = `You are a research-fraud investigator assessing qui tam viability.
For each lead, weigh the pre-verified database findings above web search results,
check for disqualifiers (copyright/permission disputes, already-settled cases),
document federal funding exposure, and finish with a markdown report that ends in
a line of the form "Viability Score: N" where N is an integer from 0 to 100.`

// buildUserMessage assembles the synthesis request: structured lead fields,
// fact store findings, then the merged evidence set.
func buildUserMessage(lead *model.Lead, ev *model.Evidence, facts model.FactFindings) string {
	var b strings.Builder

	b.WriteString("## LEAD DATA:\n\n")
	fmt.Fprintf(&b, "**Headline:** %s\n", orNA(lead.Headline))
	fmt.Fprintf(&b, "**Qui Tam Score:** %d\n", lead.ClassificationScore)
	fmt.Fprintf(&b, "**Key Facts:** %s\n", orNA(lead.KeyFacts))
	fmt.Fprintf(&b, "**Fraud Type:** %s\n", orNA(lead.FraudType))
	fmt.Fprintf(&b, "**Implicated Actors:** %s\n", orNA(lead.ImplicatedActors))
	fmt.Fprintf(&b, "**Federal Programs:** %s\n\n", orNA(lead.FederalPrograms))

	b.WriteString("## DATABASE FINDINGS (Local, Pre-verified):\n\n")
	if t := facts.Trial; t != nil {
		fmt.Fprintf(&b, "**Clinical Trial (%s):**\n", t.TrialID)
		fmt.Fprintf(&b, "- Title: %s\n", orNA(t.Title))
		fmt.Fprintf(&b, "- PI: %s\n", orNA(t.PrincipalInvestigator))
		fmt.Fprintf(&b, "- Sponsor: %s\n", orNA(t.Sponsor))
		fmt.Fprintf(&b, "- Status: %s\n", orNA(t.Status))
		fmt.Fprintf(&b, "- Funding: %s\n\n", orNA(t.FundedBy))
	}
	if g := facts.Grant; g != nil {
		fmt.Fprintf(&b, "**NIH Grant (%s):**\n", g.ProjectNum)
		fmt.Fprintf(&b, "- PI: %s\n", orNA(g.PIName))
		fmt.Fprintf(&b, "- Organization: %s\n", orNA(g.OrgName))
		fmt.Fprintf(&b, "- Total Cost: $%.0f\n", g.TotalCost)
		fmt.Fprintf(&b, "- Fiscal Year: %d\n\n", g.FiscalYear)
	}
	if r := facts.Retraction; r != nil {
		fmt.Fprintf(&b, "**Retraction (PMID %s):**\n", r.PMID)
		fmt.Fprintf(&b, "- Title: %s\n", orNA(r.Title))
		fmt.Fprintf(&b, "- Journal: %s\n", orNA(r.Journal))
		fmt.Fprintf(&b, "- Retraction Reason: %s\n", orNA(r.RetractionReason))
		fmt.Fprintf(&b, "- Retraction Date: %s\n\n", orNA(r.RetractionDate))
	}
	if facts.Hits() == 0 {
		b.WriteString("*No database matches found for identifiers in this lead.*\n\n")
	}

	b.WriteString("## WEB SEARCH RESULTS:\n\n")
	for i, item := range ev.Items {
		if i >= maxPromptEvidence {
			break
		}
		fmt.Fprintf(&b, "### Source %d: %s\n", i+1, orTitle(item.Title))
		fmt.Fprintf(&b, "URL: %s\n", item.URL)
		fmt.Fprintf(&b, "Content: %s\n\n", snippet(item.Content))
	}
	if ev.EarlyTerminated {
		fmt.Fprintf(&b, "*Evidence gathering terminated early on trigger %q; treat as a likely disqualifier.*\n\n", ev.TriggerTerm)
	}

	b.WriteString("Conduct the investigation using the protocol. Prioritize DATABASE FINDINGS (pre-verified, local) over web search results when available.")
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orTitle(s string) string {
	if s == "" {
		return "Untitled"
	}
	return s
}

func snippet(content string) string {
	if content == "" {
		return "No content"
	}
	if len(content) > maxSnippetLen {
		return content[:maxSnippetLen] + "..."
	}
	return content
}
