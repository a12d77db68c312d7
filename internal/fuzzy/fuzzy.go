// Package fuzzy compares short strings by Levenshtein edit distance.
//
// Inputs are compared as given; callers normalise case and whitespace first.
package fuzzy

// Match holds the raw distance and the normalised similarity of two strings.
type Match struct {
	Distance int
	Ratio    float64
}

// Compare returns the edit distance and similarity ratio of a and b.
func Compare(a, b string) Match {
	ra, rb := []rune(a), []rune(b)
	d := distance(ra, rb)
	return Match{Distance: d, Ratio: ratio(len(ra), len(rb), d)}
}

// Distance returns the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	return distance([]rune(a), []rune(b))
}

// Ratio returns (max(len) - distance) / max(len), or 1 when both are empty.
func Ratio(a, b string) float64 {
	return Compare(a, b).Ratio
}

func ratio(la, lb, d int) float64 {
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return float64(longest-d) / float64(longest)
}

// distance fills the whole (len(a)+1) x (len(b)+1) table.
func distance(a, b []rune) int {
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
		table[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		table[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			table[i][j] = min(
				table[i-1][j]+1,
				table[i][j-1]+1,
				table[i-1][j-1]+cost,
			)
		}
	}
	return table[len(a)][len(b)]
}
