package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		overlap  int
		expected []string
	}{
		{name: "empty", text: "  \n ", max: 3, overlap: 1, expected: nil},
		{name: "fits", text: "grateful for  my\tsister", max: 5, overlap: 1, expected: []string{"grateful for my sister"}},
		{name: "overlap", text: "a b c d e f g", max: 3, overlap: 1, expected: []string{"a b c", "c d e", "e f g"}},
		{name: "no overlap", text: "a b c d e", max: 2, overlap: 0, expected: []string{"a b", "c d", "e"}},
		{name: "overlap too large", text: "a b c d", max: 2, overlap: 2, expected: []string{"a b", "c d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitWords(tt.text, tt.max, tt.overlap))
		})
	}
}

func TestSplitWordsChunksStayWithinLimit(t *testing.T) {
	text := strings.Repeat("calm ", 1000)
	for _, chunk := range SplitWords(text, 120, 20) {
		assert.LessOrEqual(t, len(strings.Fields(chunk)), 120)
	}
}
