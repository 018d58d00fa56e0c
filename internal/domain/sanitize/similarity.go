package sanitize

import (
	"strings"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
)

// ownerMatchThreshold is the combined-similarity score at or above which two
// registrant strings are considered the same real-world owner.
const ownerMatchThreshold = 0.7

// normalizeOwner prepares a registrant string for comparison: lowercase, drop
// commas, periods become spaces, whitespace collapsed.
func normalizeOwner(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", " ")
	return strings.Join(strings.Fields(s), " ")
}

// OwnerSimilarity compares two free-text registrant strings and returns a
// score in [0,1]. It takes the better of two views: normalized Levenshtein
// similarity over the space-stripped strings, and token overlap relative to
// the smaller token set. Word reordering defeats edit distance and
// abbreviations defeat token overlap, so neither view is enough alone.
func OwnerSimilarity(a, b string) float64 {
	an, bn := normalizeOwner(a), normalizeOwner(b)

	lev := levenshteinSimilarity(
		strings.ReplaceAll(an, " ", ""),
		strings.ReplaceAll(bn, " ", ""),
	)
	tok := tokenOverlapSimilarity(strings.Fields(an), strings.Fields(bn))

	if tok > lev {
		return tok
	}
	return lev
}

// OwnersMatch applies the match threshold to the combined similarity.
func OwnersMatch(a, b string) (bool, float64) {
	sim := OwnerSimilarity(a, b)
	return sim >= ownerMatchThreshold, sim
}

func levenshteinSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	sim := 1.0 - float64(EditDistance(a, b))/float64(maxLen)
	return domain.ClampConfidence(sim)
}

func tokenOverlapSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	shared := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}

	minSize := len(setA)
	if len(setB) < minSize {
		minSize = len(setB)
	}
	return domain.ClampConfidence(float64(shared) / float64(minSize))
}

// EditDistance calculates the Levenshtein distance between two strings using
// the classic dynamic-programming table.
func EditDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
