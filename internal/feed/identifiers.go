package feed

import (
	"regexp"
	"strings"
)

var (
	nctPattern   = regexp.MustCompile(`NCT\d{8}`)
	pmidPattern  = regexp.MustCompile(`PMID[:\s]*(\d{8,})|/(\d{8,})/`)
	grantPattern = regexp.MustCompile(`(?i)\b([A-Z]\d{2})\s+([A-Z]{1,3}\d{4,6})\b`)
)

// ExtractIdentifiers pulls trial registry IDs, publication IDs, and grant
// numbers out of free text (typically filename + narrative combined).
// Duplicates are dropped; first-occurrence order is preserved.
func ExtractIdentifiers(text string) (nctIDs, pmids, grants []string) {
	nctIDs = dedup(nctPattern.FindAllString(text, -1))

	for _, m := range pmidPattern.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			pmids = append(pmids, m[1])
		} else if m[2] != "" {
			pmids = append(pmids, m[2])
		}
	}
	pmids = dedup(pmids)

	for _, m := range grantPattern.FindAllStringSubmatch(text, -1) {
		grants = append(grants, strings.ToUpper(m[1]+" "+m[2]))
	}
	grants = dedup(grants)

	return nctIDs, pmids, grants
}

// CoreProjectNum collapses a display grant number ("R01 CA123456") into the
// core project number form used by the fact store ("R01CA123456").
func CoreProjectNum(grant string) string {
	return strings.ReplaceAll(strings.ToUpper(grant), " ", "")
}

func dedup(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
