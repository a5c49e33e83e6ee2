package investigator

import (
	"regexp"
	"strconv"
)

// scorePatterns is ordered most specific first: an explicit viability or
// qui-tam score label, then the first number after "Score", then the first
// number after "Conclusion".
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Viability|Qui[-\s]?Tam)\s+Score[^\d]*?(\d+)`),
	regexp.MustCompile(`(?i)Score[^\d]*?(\d+)`),
	regexp.MustCompile(`(?i)Conclusion[^\d]*?(\d+)`),
}

// ExtractScore parses the viability score out of report text. The first
// pattern yielding a value in [0,100] wins; an out-of-range or unparseable
// match discards that pattern and tries the next. nil means no score, which
// is distinct from a score of 0.
func ExtractScore(report string) *int {
	if report == "" {
		return nil
	}

	for _, pattern := range scorePatterns {
		m := pattern.FindStringSubmatch(report)
		if m == nil {
			continue
		}
		score, err := strconv.Atoi(m[1])
		if err != nil || score < 0 || score > 100 {
			continue
		}
		return &score
	}
	return nil
}

// EffectiveScore collapses a missing score to 0 for filtering.
func EffectiveScore(score *int) int {
	if score == nil {
		return 0
	}
	return *score
}
