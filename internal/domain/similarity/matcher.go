// Package similarity scores how close a proposed purchase category is to the
// categories a user has blacklisted.
//
// Scoring is tiered. Tiers are tried in a fixed order and the first one that
// applies decides the score:
//   - exact match (case-insensitive): 100
//   - one string contains the other: 85
//   - both strings in the same synonym group: 75
//   - shared whitespace-separated words: up to 60
//   - normalized Levenshtein distance: 0 to 100
//
// Example usage:
//
//	result := similarity.MatchAll("Видеоигры", []string{"игры", "одежда"})
//	if result.Best != nil {
//		fmt.Println(result.Best.BlacklistedCategory, result.Best.SimilarityScore)
//	}
package similarity

import (
	"sort"
	"strings"
)

// Tier identifies which scoring rule produced a score.
type Tier string

const (
	TierExact     Tier = "exact"
	TierSubstring Tier = "substring"
	TierSynonym   Tier = "synonym"
	TierTokens    Tier = "token_overlap"
	TierEditDist  Tier = "edit_distance"
)

const (
	scoreExact     = 100
	scoreSubstring = 85
	scoreSynonym   = 75
	tokenCeiling   = 60
)

// tier is one scoring rule. apply reports false when the rule does not fire.
type tier struct {
	name  Tier
	apply func(a, b string) (int, bool)
}

// tiers are evaluated in order; the first applicable tier wins.
var tiers = []tier{
	{TierExact, func(a, b string) (int, bool) {
		return scoreExact, a == b
	}},
	{TierSubstring, func(a, b string) (int, bool) {
		return scoreSubstring, strings.Contains(a, b) || strings.Contains(b, a)
	}},
	{TierSynonym, func(a, b string) (int, bool) {
		return scoreSynonym, Synonyms(a, b)
	}},
	{TierTokens, tokenOverlap},
	{TierEditDist, func(a, b string) (int, bool) {
		return editSimilarity(a, b), true
	}},
}

// Match is the similarity between a category and one blacklist entry.
type Match struct {
	BlacklistedCategory string `json:"blacklisted_category"`
	SimilarityScore     int    `json:"similarity_score"`
	Reason              Reason `json:"reason"`
	Tier                Tier   `json:"tier"`
}

// Result holds ranked matches and the best one, if any.
type Result struct {
	Matches []Match `json:"matches"`
	Best    *Match  `json:"best,omitempty"`
}

// Score returns the similarity of category to blacklisted in [0, 100].
func Score(category, blacklisted string) int {
	score, _ := ScoreWithTier(category, blacklisted)
	return score
}

// ScoreWithTier is Score plus the tier that produced the score.
func ScoreWithTier(category, blacklisted string) (int, Tier) {
	a := strings.ToLower(category)
	b := strings.ToLower(blacklisted)

	for _, t := range tiers {
		if score, ok := t.apply(a, b); ok {
			return score, t.name
		}
	}

	// The edit distance tier always applies.
	return 0, TierEditDist
}

// MatchAll scores category against every blacklist entry, drops zero scores
// and returns the rest sorted by descending score. Order among equal scores
// is unspecified.
func MatchAll(category string, blacklist []string) Result {
	matches := make([]Match, 0, len(blacklist))

	for _, entry := range blacklist {
		score, t := ScoreWithTier(category, entry)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{
			BlacklistedCategory: entry,
			SimilarityScore:     score,
			Reason:              ReasonFor(score),
			Tier:                t,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})

	result := Result{Matches: matches}
	if len(matches) > 0 {
		best := matches[0]
		result.Best = &best
	}

	return result
}

// tokenOverlap scores the share of distinct words the two strings have in
// common, scaled to a ceiling of 60.
func tokenOverlap(a, b string) (int, bool) {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	shared := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0, false
	}

	return roundRatio(tokenCeiling*shared, max(len(wordsA), len(wordsB))), true
}

// editSimilarity converts edit distance into a percentage of the longer
// string's length.
func editSimilarity(a, b string) int {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return scoreExact
	}
	return roundRatio(100*(maxLen-Distance(a, b)), maxLen)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// roundRatio returns num/den rounded half up, for non-negative num and
// positive den.
func roundRatio(num, den int) int {
	return (2*num + den) / (2 * den)
}
