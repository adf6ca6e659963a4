package match

import (
	"cmp"
	"slices"
)

// DefaultMinScore is the lowest similarity Suggest reports.
const DefaultMinScore = 0.6

// Candidate is a known name with its similarity to the queried one.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every known name against name, best first. Ties keep the
// order of known.
func Rank(name string, known []string) []Candidate {
	want := Normalize(name)

	out := make([]Candidate, 0, len(known))
	for _, k := range known {
		out = append(out, Candidate{Name: k, Score: Similarity(want, Normalize(k))})
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return out
}

// Suggest returns up to limit known names scoring at least DefaultMinScore.
// A name that is already known yields nothing.
func Suggest(name string, known []string, limit int) []string {
	if slices.Contains(known, name) {
		return nil
	}

	var out []string

	for _, c := range Rank(name, known) {
		if c.Score < DefaultMinScore || len(out) == limit {
			break
		}

		out = append(out, c.Name)
	}

	return out
}
