package safety

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNotCompiled is returned when the gate holds no usable rule table
var ErrNotCompiled = errors.New("safety rules not compiled")

// Match is one phrase hit in an utterance
type Match struct {
	Phrase   string
	Severity Severity
	Negated  bool
}

// tokenize lowercases and splits on anything that is not a letter, digit or apostrophe
func tokenize(text string) []string {
	text = strings.ToLower(strings.NewReplacer("’", "'", "‘", "'").Replace(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Evaluate matches text against the rule table. The returned severity is the highest
// negation-adjusted severity over all matches.
func (rs *RuleSet) Evaluate(text string) (Severity, []Match, error) {
	if !rs.compiled() {
		return SeverityNone, nil, ErrNotCompiled
	}

	tokens := tokenize(text)
	best := SeverityNone
	var matches []Match

	for _, rule := range rs.phrases {
		for start := 0; start+len(rule.tokens) <= len(tokens); start++ {
			if !equalTokens(tokens[start:start+len(rule.tokens)], rule.tokens) {
				continue
			}
			end := start + len(rule.tokens)
			severity := rule.severity
			negated := rs.negatedAround(tokens, start, end)
			if negated {
				severity = rs.downgrade(severity)
			}
			matches = append(matches, Match{Phrase: rule.phrase, Severity: severity, Negated: negated})
			if rs.Rank(severity) > rs.Rank(best) {
				best = severity
			}
		}
	}

	return best, matches, nil
}

// negatedAround reports a negation token within the window before or after [start, end)
func (rs *RuleSet) negatedAround(tokens []string, start, end int) bool {
	if rs.NegationWindow == 0 || len(rs.negation) == 0 {
		return false
	}
	lo := start - rs.NegationWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + rs.NegationWindow
	if hi > len(tokens) {
		hi = len(tokens)
	}
	for i := lo; i < hi; i++ {
		if i >= start && i < end {
			continue
		}
		if rs.negation[tokens[i]] {
			return true
		}
	}
	return false
}

func equalTokens(a, b []string) bool {
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
