package utils

import "strings"

// SplitWords cuts text into chunks of at most maxWords whole words. Consecutive
// chunks share overlap words so a memory that straddles a boundary is still
// retrievable from either side. Whitespace inside a chunk is collapsed to single
// spaces. Empty text yields no chunks.
func SplitWords(text string, maxWords, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWords <= 0 || len(words) <= maxWords {
		return []string{strings.Join(words, " ")}
	}

	step := maxWords - overlap
	if step <= 0 {
		step = maxWords
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + maxWords
		if end >= len(words) {
			chunks = append(chunks, strings.Join(words[start:], " "))
			break
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
