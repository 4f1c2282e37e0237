package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"well-bot-be/pkg/card"
)

var testConfig = Config{
	WarnAfter:           30 * time.Second,
	SecondWarnAfter:     45 * time.Second,
	EndAfter:            60 * time.Second,
	ActivationPhrase:    "hey well bot",
	ActivationVariants:  []string{"hi well bot", "hello well bot"},
	ActivationThreshold: 0.8,
}

// frozenClock never fires timers; time only moves when set explicitly
type frozenClock struct {
	now time.Time
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (c *frozenClock) Now() time.Time                        { return c.now }
func (c *frozenClock) AfterFunc(time.Duration, func()) Timer { return noopTimer{} }

type recorder struct {
	mu          sync.Mutex
	cards       []card.Card
	transitions [][2]State
}

func (r *recorder) notify(_ string, c card.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, c)
}

func (r *recorder) observe(from, to State) {
	r.transitions = append(r.transitions, [2]State{from, to})
}

func activeMachine(t *testing.T, clock Clock, rec *recorder) *Machine {
	t.Helper()
	m := NewMachine("s1", testConfig, WithClock(clock), WithNotifier(rec.notify), WithObserver(rec.observe))
	res := m.Gate("hey well bot")
	require.Equal(t, DecisionActivated, res.Decision)
	require.Equal(t, StateActive, m.State())
	return m
}

func TestActivationScore(t *testing.T) {
	phrases := []string{"hey well bot", "hi well bot"}

	tests := []struct {
		name  string
		text  string
		above bool
	}{
		{name: "exact", text: "hey well bot", above: true},
		{name: "embedded in sentence", text: "um, hey well bot, are you there?", above: true},
		{name: "merged words", text: "hey wellbot", above: true},
		{name: "variant", text: "Hi Well Bot", above: true},
		{name: "transcription slip", text: "hey wel bot", above: true},
		{name: "unrelated", text: "what is the weather", above: false},
		{name: "empty", text: "", above: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ActivationScore(tt.text, phrases)
			assert.Equal(t, tt.above, score >= 0.8, "score %.2f", score)
		})
	}
}

func TestGate_RequiresActivation(t *testing.T) {
	m := NewMachine("s1", testConfig, WithClock(NewFakeClock(time.Unix(0, 0))))

	res := m.Gate("show my to-do list")
	assert.Equal(t, DecisionAwaiting, res.Decision)
	assert.False(t, res.Continue())
	require.NotNil(t, res.Card)
	assert.Equal(t, true, res.Card.Meta["ignored"])
	assert.Equal(t, StateAwaitActivation, m.State())

	res = m.Gate("hello well bot")
	assert.Equal(t, DecisionActivated, res.Decision)
	require.NotNil(t, res.Card)
	assert.Equal(t, "Session Started", res.Card.Title)

	res = m.Gate("show my to-do list")
	assert.True(t, res.Continue())
	assert.Nil(t, res.Card)
}

func TestEvaluate_DerivesStateFromElapsedTime(t *testing.T) {
	cfg := testConfig
	cfg.WarnAfter = 20 * time.Second
	cfg.SecondWarnAfter = 0
	cfg.EndAfter = 35 * time.Second
	clock := &frozenClock{now: time.Unix(1000, 0)}
	rec := &recorder{}
	m := NewMachine("s1", cfg, WithClock(clock), WithNotifier(rec.notify))
	m.Gate("hey well bot")

	start := clock.now
	assert.Equal(t, StateActive, m.Evaluate(start.Add(10*time.Second)))
	assert.Equal(t, StateInactivityWarn1, m.Evaluate(start.Add(25*time.Second)))
	assert.Equal(t, StateEnding, m.Evaluate(start.Add(40*time.Second)))

	clock.now = start.Add(40 * time.Second)
	res := m.Gate("anyone there")
	assert.Equal(t, DecisionExpired, res.Decision)
	require.NotNil(t, res.Card)
	assert.Equal(t, "inactivity", res.Card.Meta["reason"])
	assert.Equal(t, StateIdle, m.State())
}

func TestTimers_WarnThenEnd(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	rec := &recorder{}
	m := activeMachine(t, clock, rec)

	clock.Advance(31 * time.Second)
	assert.Equal(t, StateInactivityWarn1, m.State())

	clock.Advance(15 * time.Second)
	assert.Equal(t, StateInactivityWarn2, m.State())

	clock.Advance(15 * time.Second)
	assert.Equal(t, StateIdle, m.State())

	require.Len(t, rec.cards, 3)
	assert.Equal(t, string(StateInactivityWarn1), rec.cards[0].Meta["state"])
	assert.Equal(t, string(StateInactivityWarn2), rec.cards[1].Meta["state"])
	assert.Equal(t, "It seems like you're not around, I'll just go take a break now.", rec.cards[2].Body)
}

func TestTimers_ActivityResets(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	rec := &recorder{}
	m := activeMachine(t, clock, rec)

	clock.Advance(35 * time.Second)
	require.Equal(t, StateInactivityWarn1, m.State())

	res := m.Gate("I'm here")
	assert.True(t, res.Continue())
	assert.Equal(t, StateActive, m.State())

	clock.Advance(50 * time.Second)
	assert.Equal(t, StateInactivityWarn2, m.State(), "timers restarted from the last activity")
	assert.Equal(t, 1, clock.Pending(), "only the end timer remains")
}

func TestEnd_FromAnyNonIdleStateInOneStep(t *testing.T) {
	advances := map[State]time.Duration{
		StateActive:          0,
		StateInactivityWarn1: 31 * time.Second,
		StateInactivityWarn2: 46 * time.Second,
	}

	for want, advance := range advances {
		t.Run(string(want), func(t *testing.T) {
			clock := NewFakeClock(time.Unix(0, 0))
			rec := &recorder{}
			m := activeMachine(t, clock, rec)
			clock.Advance(advance)
			require.Equal(t, want, m.State())

			rec.transitions = nil
			c, ok := m.End(EndManual)

			require.True(t, ok)
			assert.Equal(t, "Session ended. Take care and see you next time!", c.Body)
			assert.Equal(t, [][2]State{{want, StateEnding}, {StateEnding, StateIdle}}, rec.transitions)
			assert.Equal(t, 0, clock.Pending())
		})
	}

	t.Run(string(StateAwaitActivation), func(t *testing.T) {
		rec := &recorder{}
		m := NewMachine("s1", testConfig, WithClock(NewFakeClock(time.Unix(0, 0))), WithObserver(rec.observe))
		m.Gate("hello?")
		rec.transitions = nil

		_, ok := m.End(EndManual)
		require.True(t, ok)
		assert.Equal(t, [][2]State{{StateAwaitActivation, StateEnding}, {StateEnding, StateIdle}}, rec.transitions)
	})

	t.Run("idle is a no-op", func(t *testing.T) {
		m := NewMachine("s1", testConfig)
		_, ok := m.End(EndManual)
		assert.False(t, ok)
	})
}

func TestSuspendDisablesTimers(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	rec := &recorder{}
	m := activeMachine(t, clock, rec)

	m.Suspend()
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, StateActive, m.State())
	assert.Equal(t, StateActive, m.Evaluate(clock.Now()))
	assert.Empty(t, rec.cards)

	m.Resume()
	assert.False(t, m.Suspended())
	assert.Equal(t, clock.Now(), m.LastActivity())

	clock.Advance(61 * time.Second)
	assert.Equal(t, StateIdle, m.State())
}

func TestRealClockTimersDoNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig
	cfg.WarnAfter = 5 * time.Millisecond
	cfg.SecondWarnAfter = 0
	cfg.EndAfter = 10 * time.Millisecond

	ended := make(chan card.Card, 1)
	m := NewMachine("s1", cfg, WithNotifier(func(_ string, c card.Card) {
		if c.Diagnostics.Tool == ToolEnd {
			ended <- c
		}
	}))
	m.Gate("hey well bot")

	select {
	case c := <-ended:
		assert.Equal(t, "inactivity", c.Meta["reason"])
	case <-time.After(time.Second):
		t.Fatal("session did not auto-end")
	}
	assert.Equal(t, StateIdle, m.State())
	m.Close()
}
