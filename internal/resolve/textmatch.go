package resolve

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ContainmentScore is returned when one normalized string contains the other,
// whatever the length difference.
const ContainmentScore = 0.8

// Normalize builds the comparison key: compatibility-folded, lowercased,
// with everything but letters and digits removed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Similarity scores two strings in [0,1] on their normalized keys:
// 1 for equal keys, ContainmentScore when one contains the other, otherwise
// (longer - editDistance) / longer. An empty key equals another empty key
// and is contained in every other key, so callers skip empty fields.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return ContainmentScore
	}
	longer := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	return float64(longer-Levenshtein(na, nb)) / float64(longer)
}

// Levenshtein computes edit distance (insertion, deletion, substitution cost 1).
func Levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}
