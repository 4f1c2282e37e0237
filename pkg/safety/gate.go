// FILE: pkg/safety/gate.go
// PURPOSE: Budgeted, fail-open crisis-language screen with per-session debounce

package safety

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/upstream"
)

const module = "SafetyGate"

// Outcome of the underlying check call
type Outcome string

const (
	OutcomeChecked Outcome = "checked"
	OutcomeTimeout Outcome = "timeout"
	OutcomeFailure Outcome = "failure"
)

// Verdict of a single check
type Verdict struct {
	Triggered bool
	Severity  Severity
	// Suppressed is set when a match was found but debounced
	Suppressed bool
	Matches    []Match
	Outcome    Outcome
	Duration   time.Duration
}

// FailedOpen reports whether the check did not complete and the utterance was let through
func (v Verdict) FailedOpen() bool {
	return v.Outcome != OutcomeChecked
}

// History is the per-session record of the last support card shown
type History struct {
	mu       sync.Mutex
	severity Severity
	shownAt  time.Time
	shown    bool
}

// NewHistory creates an empty debounce history
func NewHistory() *History {
	return &History{}
}

// Reset clears the history, e.g. at session end
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown = false
	h.severity = SeverityNone
	h.shownAt = time.Time{}
}

// admit decides whether a new trigger fires and records it when it does.
// Higher severity within the window always fires; equal or lower is suppressed.
func (h *History) admit(rs *RuleSet, severity Severity, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	fire := !h.shown ||
		now.Sub(h.shownAt) >= rs.DebounceWindow ||
		rs.Rank(severity) > rs.Rank(h.severity)
	if fire {
		h.shown = true
		h.severity = severity
		h.shownAt = now
	}
	return fire
}

// Gate screens utterances. Rules can be swapped at runtime through Reload.
type Gate struct {
	rules  atomic.Pointer[RuleSet]
	budget time.Duration
	log    logger.ILogger
	now    func() time.Time
}

// NewGate creates a gate. rules may be nil, in which case every check fails open
// until Reload succeeds.
func NewGate(rules *RuleSet, budget time.Duration, log logger.ILogger) *Gate {
	g := &Gate{budget: budget, log: log, now: time.Now}
	if rules != nil {
		g.rules.Store(rules)
	}
	return g
}

// WithClock overrides the time source used for debounce
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Rules returns the active rule set
func (g *Gate) Rules() *RuleSet {
	return g.rules.Load()
}

// Reload validates and installs a new rule set
func (g *Gate) Reload(rules *RuleSet) error {
	if err := rules.Compile(); err != nil {
		return err
	}
	g.rules.Store(rules)
	g.log.Info(module, "Safety rules reloaded", map[string]interface{}{
		"rules":           len(rules.Rules),
		"debounce_window": rules.DebounceWindow.String(),
	})
	return nil
}

// Check screens text. history may be nil, in which case no debounce is applied.
// language and hints are accepted for rule sources that need them; phrase matching
// ignores both.
func (g *Gate) Check(ctx context.Context, history *History, text, language string, hints map[string]interface{}) Verdict {
	type evaluation struct {
		severity Severity
		matches  []Match
	}

	rules := g.rules.Load()
	res := upstream.Call(ctx, g.budget, func(ctx context.Context) (evaluation, error) {
		severity, matches, err := rules.Evaluate(text)
		if err != nil {
			return evaluation{}, err
		}
		return evaluation{severity: severity, matches: matches}, nil
	})

	if !res.OK() {
		outcome := OutcomeFailure
		if res.Status == upstream.StatusTimeout {
			outcome = OutcomeTimeout
		}
		g.log.Warn(module, "Safety check failed open", map[string]interface{}{
			"outcome":  string(outcome),
			"error":    errString(res.Err),
			"language": language,
		})
		return Verdict{Severity: SeverityNone, Outcome: outcome, Duration: res.Duration}
	}

	v := Verdict{
		Severity: res.Value.severity,
		Matches:  res.Value.matches,
		Outcome:  OutcomeChecked,
		Duration: res.Duration,
	}
	if v.Severity == SeverityNone {
		return v
	}

	if history == nil || history.admit(rules, v.Severity, g.now()) {
		v.Triggered = true
		g.log.Info(module, "Safety trigger", map[string]interface{}{
			"severity": string(v.Severity),
			"matches":  len(v.Matches),
		})
	} else {
		v.Suppressed = true
	}
	return v
}

// SupportCard builds the support-resource card shown for a triggered verdict
func SupportCard(tool string, v Verdict) card.Card {
	concerns := make([]string, 0, len(v.Matches))
	for _, m := range v.Matches {
		concerns = append(concerns, m.Phrase)
	}
	return card.OK(tool,
		"You're not alone",
		"It sounds like you're going through something really hard. If you're in immediate danger, please call your local emergency number. "+
			"You can call or text 988 (Suicide & Crisis Lifeline) or text HOME to 741741 to reach a trained counselor any time.",
		map[string]interface{}{
			"kind":           card.KindSupport,
			"action":         "show_support_card",
			"severity":       string(v.Severity),
			"concerns_found": concerns,
		})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
