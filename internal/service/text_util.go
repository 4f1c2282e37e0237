package service

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"well-bot-be/pkg/card"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/turn"
)

// TruncateWords keeps the first n words and reports whether anything was dropped
func TruncateWords(text string, n int) (string, bool) {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " "), false
	}
	return strings.Join(words[:n], " "), true
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest
func TitleCase(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// SentenceCase upper-cases the first letter and leaves the rest untouched
func SentenceCase(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("well-bot/user"))

// UserUUID maps an envelope user id to the storage key. UUIDs pass through, any
// other id maps to a stable name-based UUID.
func UserUUID(userID string) uuid.UUID {
	if id, err := uuid.Parse(userID); err == nil {
		return id
	}
	return uuid.NewSHA1(userNamespace, []byte(userID))
}

// sessionKey identifies the session a tool call belongs to
func sessionKey(env card.Envelope) string {
	switch {
	case env.SessionId != "":
		return env.SessionId
	case env.ConversationId != "":
		return env.ConversationId
	}
	return "user:" + env.UserId
}

// argOrExtract returns args[key], falling back to extracting it from the utterance
func argOrExtract(env card.Envelope, key string, extract func(string) map[string]interface{}) string {
	if v := env.String(key); v != "" {
		return v
	}
	if extract == nil {
		return ""
	}
	utterance := env.String(turn.ArgUtterance)
	if utterance == "" {
		return ""
	}
	if s, ok := extract(utterance)[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// bestMatch returns the index of the candidate that best matches query in either
// direction, or -1 when nothing scores at least threshold
func bestMatch(query string, candidates []string, threshold float64) int {
	best, bestScore := -1, threshold
	for i, c := range candidates {
		score := max(session.ActivationScore(c, []string{query}), session.ActivationScore(query, []string{c}))
		if score > bestScore || (best < 0 && score >= bestScore) {
			best, bestScore = i, score
		}
	}
	return best
}
