// FILE: pkg/safety/rules.go
// PURPOSE: Safety rule table (phrase → severity) with configurable severity ordering

package safety

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Severity of a safety match
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeveritySelfHarm Severity = "SELF_HARM"
	SeverityIdeation Severity = "IDEATION"
	SeverityIntent   Severity = "INTENT"
)

// Rule maps a phrase to a severity
type Rule struct {
	Phrase   string   `yaml:"phrase"`
	Severity Severity `yaml:"severity"`
}

// RuleSet is the injected, reloadable safety configuration
type RuleSet struct {
	// Levels orders severities from lowest to highest. Levels[0] must be NONE.
	Levels         []Severity    `yaml:"levels"`
	Rules          []Rule        `yaml:"rules"`
	Negations      []string      `yaml:"negations"`
	NegationWindow int           `yaml:"negation_window"`
	DebounceWindow time.Duration `yaml:"debounce_window"`

	rank     map[Severity]int
	phrases  []compiledRule
	negation map[string]bool
}

type compiledRule struct {
	tokens   []string
	phrase   string
	severity Severity
}

// DefaultLevels is the stock severity ordering
var DefaultLevels = []Severity{SeverityNone, SeveritySelfHarm, SeverityIdeation, SeverityIntent}

// DefaultRuleSet returns the built-in, compiled table used when no rule file is configured
func DefaultRuleSet(debounce time.Duration, negationWindow int) *RuleSet {
	if negationWindow < 0 {
		negationWindow = 0
	}
	if debounce < 0 {
		debounce = 0
	}
	rs := &RuleSet{
		Levels: DefaultLevels,
		Rules: []Rule{
			{Phrase: "kill myself", Severity: SeverityIntent},
			{Phrase: "end it all", Severity: SeverityIntent},
			{Phrase: "take my own life", Severity: SeverityIntent},
			{Phrase: "want to die", Severity: SeverityIdeation},
			{Phrase: "suicide", Severity: SeverityIdeation},
			{Phrase: "not worth living", Severity: SeverityIdeation},
			{Phrase: "better off dead", Severity: SeverityIdeation},
			{Phrase: "hurt myself", Severity: SeveritySelfHarm},
			{Phrase: "cut myself", Severity: SeveritySelfHarm},
			{Phrase: "self harm", Severity: SeveritySelfHarm},
			{Phrase: "overdose", Severity: SeveritySelfHarm},
		},
		Negations:      []string{"not", "never", "no", "don't", "dont", "won't", "wont", "wouldn't", "wouldnt", "isn't", "nothing"},
		NegationWindow: negationWindow,
		DebounceWindow: debounce,
	}
	_ = rs.Compile()
	return rs
}

// LoadRuleSet reads a YAML rule table. Windows absent from the file fall back to the
// given defaults. An explicit 0 turns the window off.
func LoadRuleSet(path string, debounce time.Duration, negationWindow int) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read safety rules: %w", err)
	}

	rs := &RuleSet{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parse safety rules: %w", err)
	}
	// an explicit zero in the file disables the window, so track which keys are present
	var set struct {
		NegationWindow *int           `yaml:"negation_window"`
		DebounceWindow *time.Duration `yaml:"debounce_window"`
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse safety rules: %w", err)
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("safety rules: %s has no rules", path)
	}
	if len(rs.Levels) == 0 {
		rs.Levels = DefaultLevels
	}
	if set.DebounceWindow == nil {
		rs.DebounceWindow = debounce
	}
	if set.NegationWindow == nil {
		rs.NegationWindow = negationWindow
	}
	if err := rs.Compile(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Compile validates the table and prepares it for matching
func (rs *RuleSet) Compile() error {
	if len(rs.Levels) == 0 || rs.Levels[0] != SeverityNone {
		return fmt.Errorf("safety rules: levels must start with %s", SeverityNone)
	}
	rank := make(map[Severity]int, len(rs.Levels))
	for i, lvl := range rs.Levels {
		if _, dup := rank[lvl]; dup {
			return fmt.Errorf("safety rules: duplicate level %s", lvl)
		}
		rank[lvl] = i
	}
	if rs.NegationWindow < 0 {
		return fmt.Errorf("safety rules: negative negation window")
	}
	if rs.DebounceWindow < 0 {
		return fmt.Errorf("safety rules: negative debounce window")
	}

	phrases := make([]compiledRule, 0, len(rs.Rules))
	for i, r := range rs.Rules {
		tokens := tokenize(r.Phrase)
		if len(tokens) == 0 {
			return fmt.Errorf("safety rules: rule %d has an empty phrase", i)
		}
		if _, ok := rank[r.Severity]; !ok {
			return fmt.Errorf("safety rules: rule %q has unknown severity %s", r.Phrase, r.Severity)
		}
		phrases = append(phrases, compiledRule{tokens: tokens, phrase: strings.Join(tokens, " "), severity: r.Severity})
	}

	negation := make(map[string]bool, len(rs.Negations))
	for _, n := range rs.Negations {
		for _, tok := range tokenize(n) {
			negation[tok] = true
		}
	}

	rs.rank = rank
	rs.phrases = phrases
	rs.negation = negation
	return nil
}

// Rank returns the position of a severity in the ordering, -1 when unknown
func (rs *RuleSet) Rank(s Severity) int {
	if r, ok := rs.rank[s]; ok {
		return r
	}
	return -1
}

// downgrade lowers a severity by one level, never below NONE
func (rs *RuleSet) downgrade(s Severity) Severity {
	r := rs.Rank(s)
	if r <= 0 {
		return SeverityNone
	}
	return rs.Levels[r-1]
}

func (rs *RuleSet) compiled() bool {
	return rs != nil && rs.rank != nil
}
