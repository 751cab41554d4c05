package domain

import "strings"

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0

	// Exact whole-title match bonus (huge boost)
	ScoreExactTitleBonus = 200.0

	// Position bonus for substring matches (earlier is better)
	ScorePositionBonus = 10.0
)

// ScoreToken scores a single query token against an indexed title token.
// Both sides must already be normalized. Returns 0 when the tokens do not
// match at all.
func ScoreToken(queryToken, titleToken string) float64 {
	if queryToken == "" || titleToken == "" {
		return 0.0
	}

	// Exact match
	if queryToken == titleToken {
		return ScoreExactMatch
	}

	// Prefix match
	if strings.HasPrefix(titleToken, queryToken) {
		return ScorePrefixMatch
	}

	// Substring match, earlier occurrences score higher
	if idx := strings.Index(titleToken, queryToken); idx >= 0 {
		substringBonus := ScorePositionBonus * (1.0 - float64(idx)/float64(len(titleToken)))
		return ScoreSubstringMatch + substringBonus
	}

	return 0.0
}
