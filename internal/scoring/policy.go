// Package scoring implements rule-based credit assignment for
// multiple-choice questions. A standard answer authored as single-letter
// entries is graded option by option; one authored as multi-letter groups
// is graded all-or-nothing with partial credit only for a clean subset.
package scoring

import (
	"math"

	"github.com/gaokao-bench/grader/internal/answer"
)

// QuestionType classifies how a standard answer was authored.
type QuestionType string

const (
	// TypeSeparate marks a standard answer made of single-letter entries,
	// each rewarded independently.
	TypeSeparate QuestionType = "separate"
	// TypeCombined marks a standard answer where at least one entry encodes
	// a multi-letter group worth credit only as a whole.
	TypeCombined QuestionType = "combined"
)

// Classify inspects the raw (un-normalized) standard answer. Separate iff
// every element is exactly one character; anything else is combined.
// Classification happens on the raw shape on purpose: normalizing first
// would split every group into single letters and silently reclassify
// multi-select items.
func Classify(standard any) QuestionType {
	for _, elem := range elements(standard) {
		if len([]rune(elem)) != 1 {
			return TypeCombined
		}
	}
	return TypeSeparate
}

// Strategy computes a score for one candidate answer against a standard
// answer. Both are normalized before comparison.
type Strategy interface {
	Score(standard, candidate any, maxScore float64) float64
}

// ForStandard selects the strategy matching the standard answer's shape.
func ForStandard(standard any) Strategy {
	if Classify(standard) == TypeSeparate {
		return Separate{}
	}
	return Combined{}
}

// Score classifies the standard answer and applies the matching strategy.
func Score(standard, candidate any, maxScore float64) float64 {
	return ForStandard(standard).Score(standard, candidate, maxScore)
}

// Separate grades recall against the standard set: credit is the fraction
// of standard letters the candidate selected. Extra selections are never
// penalized.
type Separate struct{}

func (Separate) Score(standard, candidate any, maxScore float64) float64 {
	std := answer.Normalize(standard)
	cand := answer.Normalize(candidate)

	var ratio float64
	if len(std) == 0 {
		if len(cand) == 0 {
			ratio = 1.0
		}
	} else {
		ratio = float64(intersectCount(std, cand)) / float64(len(std))
	}
	return round2(maxScore * ratio)
}

// Combined grades against the union of every standard group. An exact match
// earns full credit, any selection outside the union forfeits the item, and
// a clean subset earns proportional credit.
type Combined struct{}

func (Combined) Score(standard, candidate any, maxScore float64) float64 {
	allOptions := answer.Normalize(standard)
	cand := answer.Normalize(candidate)

	var ratio float64
	switch {
	case setEqual(allOptions, cand):
		ratio = 1.0
	case countOutside(cand, allOptions) > 0:
		ratio = 0.0
	case len(allOptions) == 0:
		// Candidate non-empty here, otherwise setEqual matched.
		ratio = 0.0
	default:
		ratio = float64(intersectCount(allOptions, cand)) / float64(len(allOptions))
	}
	return round2(maxScore * ratio)
}

// elements coerces a raw standard answer into its ordered elements. Free
// text is treated as a one-element sequence.
func elements(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func intersectCount(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

// countOutside counts elements of a that are not in b.
func countOutside(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range a {
		if _, ok := set[s]; !ok {
			n++
		}
	}
	return n
}

// setEqual compares two normalized (sorted, distinct) letter sets.
func setEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
