// FILE: pkg/session/machine.go
// PURPOSE: Per-session lifecycle state machine with inactivity warnings and auto-end

package session

import (
	"sync"
	"time"

	"well-bot-be/pkg/card"
)

// State of a session
type State string

const (
	StateIdle            State = "IDLE"
	StateAwaitActivation State = "AWAIT_ACTIVATION"
	StateActive          State = "ACTIVE"
	StateInactivityWarn1 State = "INACTIVITY_WARN_1"
	StateInactivityWarn2 State = "INACTIVITY_WARN_2"
	StateEnding          State = "ENDING"
)

// AcceptsIntents reports whether utterances in this state are routed to intent resolution
func (s State) AcceptsIntents() bool {
	return s == StateActive || s == StateInactivityWarn1 || s == StateInactivityWarn2
}

// EndReason explains why a session ended
type EndReason string

const (
	EndManual     EndReason = "manual"
	EndInactivity EndReason = "inactivity"
)

const (
	ToolWake    = "session.wake"
	ToolEnd     = "session.end"
	ToolWarning = "session.warning"
	ToolPrompt  = "session.activation"
)

// Config of the state machine
type Config struct {
	WarnAfter           time.Duration
	SecondWarnAfter     time.Duration
	EndAfter            time.Duration
	ActivationPhrase    string
	ActivationVariants  []string
	ActivationThreshold float64
}

// Notifier receives cards produced by timers, outside of any turn
type Notifier func(sessionID string, c card.Card)

// Decision of the session gate for one utterance
type Decision string

const (
	DecisionAccepted  Decision = "accepted"
	DecisionActivated Decision = "activated"
	DecisionAwaiting  Decision = "awaiting_activation"
	DecisionExpired   Decision = "expired"
)

// GateResult tells the orchestrator whether to continue to intent resolution.
// Card is set whenever the turn should short-circuit.
type GateResult struct {
	Decision Decision
	State    State
	Card     *card.Card
}

// Continue reports whether the utterance proceeds to intent resolution
func (g GateResult) Continue() bool {
	return g.Decision == DecisionAccepted
}

// Machine is the single authority on whether an utterance is in-session.
// All methods are safe for concurrent use.
type Machine struct {
	mu           sync.Mutex
	id           string
	cfg          Config
	clock        Clock
	notify       Notifier
	observer     func(from, to State)
	state        State
	lastActivity time.Time
	suspended    bool
	warnTimer    Timer
	endTimer     Timer
	generation   uint64
}

// Option customizes a Machine
type Option func(*Machine)

// WithClock replaces the wall clock
func WithClock(clock Clock) Option {
	return func(m *Machine) { m.clock = clock }
}

// WithNotifier receives warning and auto-end cards from timers
func WithNotifier(n Notifier) Option {
	return func(m *Machine) { m.notify = n }
}

// WithObserver is called on every state transition while the machine lock is held
func WithObserver(fn func(from, to State)) Option {
	return func(m *Machine) { m.observer = fn }
}

// NewMachine creates a machine in IDLE
func NewMachine(id string, cfg Config, opts ...Option) *Machine {
	m := &Machine{id: id, cfg: cfg, clock: RealClock, state: StateIdle}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the session id
func (m *Machine) ID() string {
	return m.id
}

// State returns the stored state without applying elapsed time
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Suspended reports whether timers are disabled
func (m *Machine) Suspended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suspended
}

// LastActivity returns the last user activity timestamp
func (m *Machine) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// Evaluate returns the state implied by elapsed inactivity at now. It does not mutate.
func (m *Machine) Evaluate(now time.Time) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluateLocked(now)
}

func (m *Machine) evaluateLocked(now time.Time) State {
	if !m.state.AcceptsIntents() || m.suspended {
		return m.state
	}
	elapsed := now.Sub(m.lastActivity)
	switch {
	case m.cfg.EndAfter > 0 && elapsed >= m.cfg.EndAfter:
		return StateEnding
	case m.cfg.SecondWarnAfter > 0 && elapsed >= m.cfg.SecondWarnAfter:
		return StateInactivityWarn2
	case m.cfg.WarnAfter > 0 && elapsed >= m.cfg.WarnAfter:
		return StateInactivityWarn1
	default:
		return StateActive
	}
}

// Gate decides whether text is in-session. Accepted utterances count as activity.
func (m *Machine) Gate(text string) GateResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()

	if m.state == StateIdle || m.state == StateEnding {
		m.transitionLocked(StateAwaitActivation)
	}

	switch m.state {
	case StateAwaitActivation:
		if ActivationScore(text, m.phrases()) < m.cfg.ActivationThreshold {
			c := activationPromptCard(m.cfg.ActivationPhrase)
			return GateResult{Decision: DecisionAwaiting, State: m.state, Card: &c}
		}
		m.transitionLocked(StateActive)
		m.touchLocked(now)
		c := wakeCard()
		return GateResult{Decision: DecisionActivated, State: m.state, Card: &c}
	default:
		if m.evaluateLocked(now) == StateEnding {
			c := m.endLocked(EndInactivity)
			return GateResult{Decision: DecisionExpired, State: m.state, Card: &c}
		}
		m.touchLocked(now)
		return GateResult{Decision: DecisionAccepted, State: m.state}
	}
}

// Touch records user activity. It only affects in-session states.
func (m *Machine) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.AcceptsIntents() {
		m.touchLocked(m.clock.Now())
	}
}

// End moves any non-idle session to ENDING and then IDLE in one step. It returns
// false when the session was already idle.
func (m *Machine) End(reason EndReason) (card.Card, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return card.Card{}, false
	}
	return m.endLocked(reason), true
}

// Suspend disables both timers until Resume, e.g. during meditation playback
func (m *Machine) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = true
	m.stopTimersLocked()
}

// Resume re-enables timers and counts as activity
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.suspended {
		return
	}
	m.suspended = false
	if m.state.AcceptsIntents() {
		m.touchLocked(m.clock.Now())
	}
}

// Close stops timers without emitting cards. Used when the registry evicts the session.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimersLocked()
}

func (m *Machine) phrases() []string {
	return append([]string{m.cfg.ActivationPhrase}, m.cfg.ActivationVariants...)
}

func (m *Machine) transitionLocked(to State) {
	from := m.state
	m.state = to
	if m.observer != nil && from != to {
		m.observer(from, to)
	}
}

func (m *Machine) endLocked(reason EndReason) card.Card {
	m.stopTimersLocked()
	m.transitionLocked(StateEnding)
	c := endCard(reason)
	m.suspended = false
	m.transitionLocked(StateIdle)
	return c
}

func (m *Machine) touchLocked(now time.Time) {
	m.lastActivity = now
	if m.state != StateActive {
		m.transitionLocked(StateActive)
	}
	m.stopTimersLocked()
	if m.suspended {
		return
	}
	m.generation++
	gen := m.generation
	if m.cfg.WarnAfter > 0 {
		m.warnTimer = m.clock.AfterFunc(m.cfg.WarnAfter, func() { m.onWarn(gen, StateInactivityWarn1) })
	}
	if m.cfg.EndAfter > 0 {
		m.endTimer = m.clock.AfterFunc(m.cfg.EndAfter, func() { m.onEnd(gen) })
	}
}

func (m *Machine) stopTimersLocked() {
	m.generation++
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.endTimer != nil {
		m.endTimer.Stop()
		m.endTimer = nil
	}
}

func (m *Machine) onWarn(gen uint64, to State) {
	m.mu.Lock()
	if gen != m.generation || !m.state.AcceptsIntents() {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(to)
	// the warning timer is re-armed once for the second warning
	if to == StateInactivityWarn1 && m.cfg.SecondWarnAfter > m.cfg.WarnAfter &&
		(m.cfg.EndAfter == 0 || m.cfg.SecondWarnAfter < m.cfg.EndAfter) {
		m.warnTimer = m.clock.AfterFunc(m.cfg.SecondWarnAfter-m.cfg.WarnAfter, func() { m.onWarn(gen, StateInactivityWarn2) })
	}
	notify := m.notify
	m.mu.Unlock()

	if notify != nil {
		notify(m.id, warningCard(to))
	}
}

func (m *Machine) onEnd(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || !m.state.AcceptsIntents() {
		m.mu.Unlock()
		return
	}
	c := m.endLocked(EndInactivity)
	notify := m.notify
	m.mu.Unlock()

	if notify != nil {
		notify(m.id, c)
	}
}

func wakeCard() card.Card {
	return card.OK(ToolWake, "Session Started",
		"Welcome! I'm here to help with your wellness journey. What would you like to do today?",
		map[string]interface{}{"kind": card.KindSession, "state": string(StateActive)})
}

func activationPromptCard(phrase string) card.Card {
	return card.OK(ToolPrompt, "Waiting",
		"Say \""+phrase+"\" when you're ready to start.",
		map[string]interface{}{"kind": card.KindSession, "state": string(StateAwaitActivation), "ignored": true})
}

func warningCard(state State) card.Card {
	body := "Are you still there?"
	if state == StateInactivityWarn2 {
		body = "I'll wrap up our session soon if I don't hear from you."
	}
	return card.OK(ToolWarning, "Still there?", body,
		map[string]interface{}{"kind": card.KindSession, "state": string(state)})
}

func endCard(reason EndReason) card.Card {
	body := "Session ended. Goodbye!"
	switch reason {
	case EndManual:
		body = "Session ended. Take care and see you next time!"
	case EndInactivity:
		body = "It seems like you're not around, I'll just go take a break now."
	}
	return card.OK(ToolEnd, "Session Ended", body,
		map[string]interface{}{"kind": card.KindSession, "reason": string(reason), "state": string(StateIdle)})
}

// EndCard builds the end-of-session card for reason
func EndCard(reason EndReason) card.Card {
	return endCard(reason)
}

// WakeCard builds the session start card
func WakeCard() card.Card {
	return wakeCard()
}
