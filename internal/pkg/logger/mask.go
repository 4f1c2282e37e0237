package logger

import (
	"crypto/md5"
	"fmt"
)

// MaskText hides user text in logs. Short text is reduced to its length,
// longer text keeps a few leading/trailing characters and a short hash.
func MaskText(text string) string {
	const maxChars = 20
	runes := []rune(text)
	if len(runes) <= maxChars {
		return fmt.Sprintf("[%d chars]", len(runes))
	}
	prefix := string(runes[:maxChars/2])
	suffix := string(runes[len(runes)-maxChars/2:])
	hash := fmt.Sprintf("%x", md5.Sum([]byte(text)))[:8]
	return fmt.Sprintf("%s...%s[%s]", prefix, suffix, hash)
}
