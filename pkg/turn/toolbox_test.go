package turn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"well-bot-be/pkg/card"
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/session"
)

func TestNewToolbox(t *testing.T) {
	calls := &toolCalls{calls: map[string][]card.Envelope{}}
	d := newDispatch(calls)
	noop := func(ctx context.Context, env card.Envelope) (card.Card, error) {
		return card.OK("x", "x", "x", nil), nil
	}

	tb, err := NewToolbox(d, Entry{Tool: "test.hello", Handler: noop})
	require.NoError(t, err)
	assert.Len(t, tb, len(d)+1)
	assert.Contains(t, tb.Names(), "test.hello")
	assert.IsIncreasing(t, tb.Names())

	_, err = NewToolbox(d, Entry{Tool: string(intent.TodoAdd), Handler: noop})
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewToolbox(d, Entry{Tool: "broken"})
	assert.ErrorContains(t, err, "incomplete")
}

func TestRunToolWithoutSession(t *testing.T) {
	h := newHarness(t)
	tb, err := NewToolbox(h.o.dispatch)
	require.NoError(t, err)

	env := card.NewEnvelope("trace-1", "user-1", "", "", map[string]interface{}{"title": "milk"})
	c := h.o.RunTool(context.Background(), env, tb[string(intent.TodoAdd)])

	assert.Equal(t, card.StatusOK, c.Status)
	assert.Equal(t, string(intent.TodoAdd), c.Diagnostics.Tool)
	assert.Equal(t, 1, h.tools.count(string(intent.TodoAdd)))
	assert.Equal(t, 0, h.o.Registry().Len())
}

func TestRunToolAppliesSessionEffect(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")
	tb, err := NewToolbox(h.o.dispatch)
	require.NoError(t, err)

	env := card.NewEnvelope("trace-2", "user-1", "", "s1", nil)
	c := h.o.RunTool(context.Background(), env, tb[string(intent.MeditationPlay)])
	require.Equal(t, card.StatusOK, c.Status)

	rec, ok := h.o.Registry().Lookup("s1")
	require.True(t, ok)
	assert.True(t, rec.Machine.Suspended())

	h.o.RunTool(context.Background(), env, tb[string(intent.MeditationStop)])
	assert.False(t, rec.Machine.Suspended())

	h.o.RunTool(context.Background(), env, tb[string(intent.SessionEnd)])
	assert.Equal(t, session.StateIdle, rec.Machine.State())
	_, ok = h.o.Registry().Lookup("s1")
	assert.False(t, ok)
}

func TestRunToolConflictKeepsSession(t *testing.T) {
	h := newHarness(t, func(hc *harnessConfig) {
		hc.dispatch = func(calls *toolCalls) Dispatch {
			d := newDispatch(calls)
			e := d[intent.SessionEnd]
			e.Handler = func(ctx context.Context, env card.Envelope) (card.Card, error) {
				return card.Card{}, card.Conflict("nothing to end")
			}
			d[intent.SessionEnd] = e
			return d
		}
	})
	h.activate(t, "s1")
	tb, err := NewToolbox(h.o.dispatch)
	require.NoError(t, err)

	c := h.o.RunTool(context.Background(), card.NewEnvelope("trace-3", "user-1", "", "s1", nil), tb[string(intent.SessionEnd)])
	assert.Equal(t, card.StatusOK, c.Status)
	assert.Equal(t, true, c.Meta["conflict"])

	rec, ok := h.o.Registry().Lookup("s1")
	require.True(t, ok)
	assert.Equal(t, session.StateActive, rec.Machine.State())
}
