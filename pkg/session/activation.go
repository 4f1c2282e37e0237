package session

import (
	"strings"
	"unicode"
)

func normalize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ActivationScore returns the best similarity in [0,1] between any of the phrases
// and any same-length token window of text.
func ActivationScore(text string, phrases []string) float64 {
	tokens := normalize(text)
	best := 0.0
	for _, phrase := range phrases {
		want := normalize(phrase)
		if len(want) == 0 {
			continue
		}
		target := strings.Join(want, " ")
		// windows one token shorter and longer tolerate split or merged words ("well bot" vs "wellbot")
		for size := len(want) - 1; size <= len(want)+1; size++ {
			if size <= 0 || size > len(tokens) {
				continue
			}
			for start := 0; start+size <= len(tokens); start++ {
				candidate := strings.Join(tokens[start:start+size], " ")
				if score := similarity(candidate, target); score > best {
					best = score
				}
			}
		}
	}
	return best
}

func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
