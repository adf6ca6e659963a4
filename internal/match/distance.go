package match

import (
	"github.com/agext/levenshtein"
)

// Distance is the Levenshtein edit distance between a and b, counted in runes.
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Similarity maps the distance into [0, 1]; 1 means identical.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}

	return 1 - float64(Distance(a, b))/float64(max(la, lb))
}
