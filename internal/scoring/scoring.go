// Package scoring turns free-text answers into verdicts.
package scoring

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/vocadrill/internal/fuzzy"
)

// Mode selects how strict grading is.
type Mode string

// Scoring modes.
const (
	Exact   Mode = "exact"
	Half    Mode = "half"
	Partial Mode = "partial"
	Lenient Mode = "lenient"
)

// Thresholds.
const (
	halfRatio       = 0.5
	lenientDistance = 2
	suggestMinRatio = 0.6
)

// ParseMode validates a scoring mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Exact, Half, Partial, Lenient:
		return m, nil
	case "":
		return Exact, nil
	}
	return "", fmt.Errorf("unknown scoring mode %q (want exact, half, partial or lenient)", s)
}

// Verdict is the outcome of grading one answer.
type Verdict struct {
	Correct  bool
	Ratio    float64
	Distance int
}

// Normalize trims, collapses whitespace runs and, unless strict, lowercases.
func Normalize(s string, strict bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if !strict {
		s = strings.ToLower(s)
	}
	return s
}

// Grade compares input against expected under mode. Unknown modes grade as Exact.
func Grade(input, expected string, mode Mode, strict bool) Verdict {
	in := Normalize(input, strict)
	want := Normalize(expected, strict)
	if in == "" {
		return Verdict{Distance: len([]rune(want))}
	}

	m := fuzzy.Compare(in, want)
	v := Verdict{Ratio: m.Ratio, Distance: m.Distance}
	switch mode {
	case Half:
		v.Correct = m.Ratio >= halfRatio
	case Partial:
		v.Correct = m.Ratio > 0
	case Lenient:
		v.Correct = m.Distance <= lenientDistance
	default:
		if in == want {
			v = Verdict{Correct: true, Ratio: 1}
		}
	}
	return v
}

// GradeAny grades input against every accepted answer and returns the best
// verdict with the answer it matched. A correct verdict beats any incorrect
// one; ties are broken by ratio, then by list order.
func GradeAny(input string, accepted []string, mode Mode, strict bool) (Verdict, string) {
	var best Verdict
	bestAnswer := ""
	for i, a := range accepted {
		v := Grade(input, a, mode, strict)
		if i == 0 || better(v, best) {
			best, bestAnswer = v, a
		}
	}
	return best, bestAnswer
}

func better(a, b Verdict) bool {
	if a.Correct != b.Correct {
		return a.Correct
	}
	return a.Ratio > b.Ratio
}

// Suggest proposes expected as a correction for a near miss. Exact matches
// and poor matches produce no suggestion.
func Suggest(v Verdict, expected string, autoCorrect bool) (string, bool) {
	if !autoCorrect {
		return "", false
	}
	if v.Ratio < suggestMinRatio || v.Ratio >= 1 {
		return "", false
	}
	return expected, true
}
