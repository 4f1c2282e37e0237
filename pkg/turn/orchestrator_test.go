package turn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/retrieval"
	"well-bot-be/pkg/safety"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/topiccache"
	"well-bot-be/pkg/upstream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

type countingClassifier struct {
	calls atomic.Int32
	out   intent.Classification
	err   error
}

func (c *countingClassifier) Classify(ctx context.Context, text string) (intent.Classification, error) {
	c.calls.Add(1)
	return c.out, c.err
}

type fakeMemory struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	results  []retrieval.Result
	delay    time.Duration
	embedErr error
	searches int
}

func (m *fakeMemory) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

func (m *fakeMemory) SearchVector(ctx context.Context, userID string, vector []float32, kinds []retrieval.Kind, topK int) retrieval.Outcome {
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()
	res := upstream.Call(ctx, time.Hour, func(ctx context.Context) ([]retrieval.Result, error) {
		if m.delay > 0 {
			time.Sleep(m.delay)
		}
		return m.results, nil
	})
	if !res.OK() {
		return retrieval.Outcome{Results: []retrieval.Result{}, Status: res.Status}
	}
	return retrieval.Outcome{Results: res.Value, Status: upstream.StatusOK}
}

func (m *fakeMemory) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

type fakeResponder struct {
	snippets []string
	err      error
	panics   bool
}

func (r *fakeResponder) Respond(ctx context.Context, text string, snippets []string) (string, error) {
	if r.panics {
		panic("boom")
	}
	r.snippets = snippets
	if r.err != nil {
		return "", r.err
	}
	return "That sounds like a lot. Want to talk about it?", nil
}

type panicResolver struct{}

func (panicResolver) Resolve(ctx context.Context, text string) intent.Result {
	panic("resolver exploded")
}

type toolCalls struct {
	mu    sync.Mutex
	calls map[string][]card.Envelope
}

func (t *toolCalls) count(tool string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls[tool])
}

func (t *toolCalls) total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		n += len(c)
	}
	return n
}

type summaries struct {
	mu  sync.Mutex
	all []Summary
}

func (s *summaries) TurnCompleted(ctx context.Context, req Request, res Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, res)
}

func (s *summaries) last() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.all[len(s.all)-1]
}

func newDispatch(calls *toolCalls) Dispatch {
	d := Dispatch{}
	for _, i := range intent.All {
		if !i.IsTool() {
			continue
		}
		tool := string(i)
		effect := EffectNone
		switch i {
		case intent.MeditationPlay:
			effect = EffectSuspend
		case intent.MeditationStop:
			effect = EffectResume
		case intent.SessionEnd:
			effect = EffectEndSession
		}
		d[i] = Entry{Tool: tool, Effect: effect, Handler: func(ctx context.Context, env card.Envelope) (card.Card, error) {
			calls.mu.Lock()
			calls.calls[tool] = append(calls.calls[tool], env)
			calls.mu.Unlock()
			return card.OK(tool, tool, "done", nil), nil
		}}
	}
	return d
}

type harness struct {
	o          *Orchestrator
	classifier *countingClassifier
	memory     *fakeMemory
	responder  *fakeResponder
	tools      *toolCalls
	observed   *summaries
	clock      *session.FakeClock
}

type option func(*harnessConfig)

type harnessConfig struct {
	safety   SafetyChecker
	resolver IntentResolver
	dispatch func(*toolCalls) Dispatch
}

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	hc := &harnessConfig{}
	for _, opt := range opts {
		opt(hc)
	}

	h := &harness{
		classifier: &countingClassifier{out: intent.Classification{Intent: "small_talk", Confidence: 0.7, Args: map[string]interface{}{}}},
		memory:     &fakeMemory{results: []retrieval.Result{{Kind: retrieval.KindJournal, RefID: "j1", Snippet: "slept badly last week"}}},
		responder:  &fakeResponder{},
		tools:      &toolCalls{calls: map[string][]card.Envelope{}},
		observed:   &summaries{},
		clock:      session.NewFakeClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)),
	}

	log := logger.NewNopLogger()
	gate := hc.safety
	if gate == nil {
		gate = safety.NewGate(safety.DefaultRuleSet(10*time.Minute, 3), 50*time.Millisecond, log)
	}
	resolver := hc.resolver
	if resolver == nil {
		resolver = intent.NewResolver(h.classifier, 200*time.Millisecond, log)
	}
	dispatch := newDispatch(h.tools)
	if hc.dispatch != nil {
		dispatch = hc.dispatch(h.tools)
	}

	registry := NewRegistry(RegistryConfig{
		Session: session.Config{
			WarnAfter:           30 * time.Second,
			SecondWarnAfter:     45 * time.Second,
			EndAfter:            60 * time.Second,
			ActivationPhrase:    "hey well bot",
			ActivationThreshold: 0.8,
		},
		TopicCache:  topiccache.Config{Threshold: 0.78, TTL: 5 * time.Minute, HitCap: 3},
		IdleTimeout: time.Hour,
		Clock:       h.clock,
	}, nil)

	o, err := NewOrchestrator(Config{RetrievalBudget: 100 * time.Millisecond, TopK: 8}, registry, gate, resolver, h.memory, h.responder, dispatch,
		logger.NewCardSampler(log, 1), log, h.observed)
	require.NoError(t, err)
	h.o = o
	return h
}

func request(sessionID, text string) Request {
	return Request{
		Envelope: card.NewEnvelope("trace-"+text, "user-1", "conv-1", sessionID, nil),
		Text:     text,
		Language: "en",
	}
}

func (h *harness) send(sessionID, text string) card.Card {
	return h.o.Handle(context.Background(), request(sessionID, text))
}

func (h *harness) activate(t *testing.T, sessionID string) {
	t.Helper()
	c := h.send(sessionID, "hey well bot")
	require.Equal(t, session.ToolWake, c.Diagnostics.Tool)
}

func TestSafetyTriggerPreemptsEverything(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")

	c := h.send("s1", "I want to kill myself")

	assert.Equal(t, card.KindSupport, c.Kind())
	assert.Equal(t, string(safety.SeverityIntent), c.Meta["severity"])
	assert.Equal(t, int32(0), h.classifier.calls.Load(), "no classifier call")
	assert.Equal(t, 0, h.tools.total(), "no tool call")
	assert.Equal(t, 0, h.memory.searchCount())
	assert.Equal(t, []Stage{StageReceived, StageSafetyChecked, StageResponded}, h.observed.last().Stages)
}

func TestSafetyRunsBeforeActivation(t *testing.T) {
	h := newHarness(t)

	c := h.send("s1", "I want to end it all")

	assert.Equal(t, card.KindSupport, c.Kind())
	rec, ok := h.o.Registry().Lookup("s1")
	require.True(t, ok)
	assert.Equal(t, session.StateIdle, rec.Machine.State(), "safety short-circuits before the session gate")
}

func TestAwaitingActivationIgnoresIntents(t *testing.T) {
	h := newHarness(t)

	c := h.send("s1", "show my to-do list")

	assert.Equal(t, session.ToolPrompt, c.Diagnostics.Tool)
	assert.Equal(t, 0, h.tools.total())
	assert.Equal(t, int32(0), h.classifier.calls.Load())
}

func TestFastPathDispatchesTool(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")

	c := h.send("s1", "show my to-do list")

	assert.Equal(t, "todo.list", c.Diagnostics.Tool)
	assert.Equal(t, 1, h.tools.count("todo.list"))
	assert.Equal(t, int32(0), h.classifier.calls.Load())
	sum := h.observed.last()
	assert.Equal(t, intent.TodoList, sum.Intent.Intent)
	assert.Equal(t, 0.95, sum.Intent.Confidence)
	assert.Equal(t, []Stage{StageReceived, StageSafetyChecked, StageSessionGated, StageIntentResolved, StageTool, StageResponded}, sum.Stages)
}

func TestToolReceivesExtractedArgs(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")

	h.send("s1", "add todo water the plants")

	require.Equal(t, 1, h.tools.count("todo.add"))
	env := h.tools.calls["todo.add"][0]
	assert.Equal(t, "water the plants", env.String("content"))
	assert.Equal(t, "add todo water the plants", env.String(ArgUtterance))
	assert.Equal(t, "user-1", env.UserId)
}

func TestSmallTalkReusesTopicCache(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")
	h.memory.vectors = map[string][]float32{
		"work was exhausting today":      {1, 0},
		"my manager keeps piling it on":  {0.91, 0.4146},
		"what should I cook for dinner?": {0, 1},
	}

	first := h.send("s1", "work was exhausting today")
	second := h.send("s1", "my manager keeps piling it on")

	assert.Equal(t, card.KindChat, first.Kind())
	assert.Equal(t, string(topiccache.DecisionNewTopic), first.Meta["topic_decision"])
	assert.Equal(t, string(topiccache.DecisionHit), second.Meta["topic_decision"])
	assert.Equal(t, 1, h.memory.searchCount(), "second turn served from cache")
	assert.Equal(t, []string{"slept badly last week"}, h.responder.snippets)

	rec, _ := h.o.Registry().Lookup("s1")
	entry, ok := rec.Topics.Entry()
	require.True(t, ok)
	assert.Equal(t, 1, entry.HitCount)

	h.send("s1", "what should I cook for dinner?")
	assert.Equal(t, 2, h.memory.searchCount(), "topic shift retrieves on the very next turn")
}

func TestToolDispatchEvictsTopicCache(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")

	h.send("s1", "work was exhausting today")
	h.send("s1", "give me a quote")
	h.send("s1", "work was exhausting today")

	assert.Equal(t, 2, h.memory.searchCount())
}

func TestRetrievalTimeoutStillProducesCard(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")
	h.memory.delay = 140 * time.Millisecond

	start := time.Now()
	c := h.send("s1", "tell me something nice")

	assert.Less(t, time.Since(start), 135*time.Millisecond)
	assert.Equal(t, card.StatusOK, c.Status)
	assert.Equal(t, false, c.Meta["grounded"])
	require.NotNil(t, c.Diagnostics.MemoryUsed)
	assert.False(t, *c.Diagnostics.MemoryUsed)
	assert.Empty(t, h.responder.snippets)
}

func TestExactlyOneCardWhenEverythingFails(t *testing.T) {
	broken := safety.NewGate(nil, 50*time.Millisecond, logger.NewNopLogger())
	h := newHarness(t, func(hc *harnessConfig) { hc.safety = broken })
	h.classifier.err = errors.New("classifier down")
	h.memory.embedErr = errors.New("embedder down")
	h.activate(t, "s1")

	h.responder.err = errors.New("llm down")
	c := h.send("s1", "I feel flat")

	assert.Equal(t, card.StatusError, c.Status)
	assert.Equal(t, card.TypeErrorCard, c.Type)
	require.NotNil(t, c.ErrorCode)
	assert.Equal(t, card.CodeCompletionFailed, *c.ErrorCode)

	h.responder.err = nil
	c = h.send("s1", "I feel flat")
	assert.Equal(t, card.StatusOK, c.Status, "fail-open stages are invisible")
	assert.Len(t, h.observed.all, 3)
}

func TestPanicsBecomeErrorCards(t *testing.T) {
	t.Run("tool", func(t *testing.T) {
		h := newHarness(t, func(hc *harnessConfig) {
			hc.dispatch = func(calls *toolCalls) Dispatch {
				d := newDispatch(calls)
				e := d[intent.QuoteGet]
				e.Handler = func(ctx context.Context, env card.Envelope) (card.Card, error) { panic("nil map") }
				d[intent.QuoteGet] = e
				return d
			}
		})
		h.activate(t, "s1")

		c := h.send("s1", "give me a quote")

		require.NotNil(t, c.ErrorCode)
		assert.Equal(t, card.CodeUnhandled, *c.ErrorCode)
		assert.Equal(t, "quote.get", c.Diagnostics.Tool)
	})

	t.Run("responder", func(t *testing.T) {
		h := newHarness(t)
		h.activate(t, "s1")
		h.responder.panics = true

		c := h.send("s1", "hello there friend")

		require.NotNil(t, c.ErrorCode)
		assert.Equal(t, card.CodeCompletionFailed, *c.ErrorCode)
	})

	t.Run("stage", func(t *testing.T) {
		h := newHarness(t, func(hc *harnessConfig) { hc.resolver = panicResolver{} })
		h.activate(t, "s1")

		c := h.send("s1", "hello there friend")

		require.NotNil(t, c.ErrorCode)
		assert.Equal(t, card.CodeUnhandled, *c.ErrorCode)

		// the session lock was released
		c = h.send("s1", "I want to kill myself")
		assert.Equal(t, card.KindSupport, c.Kind())
	})
}

func TestToolErrorsMapToCards(t *testing.T) {
	h := newHarness(t, func(hc *harnessConfig) {
		hc.dispatch = func(calls *toolCalls) Dispatch {
			d := newDispatch(calls)
			e := d[intent.TodoDelete]
			e.Handler = func(ctx context.Context, env card.Envelope) (card.Card, error) {
				return card.Card{}, card.Conflict("Please show your to-do list first.")
			}
			d[intent.TodoDelete] = e
			e = d[intent.GratitudeAdd]
			e.Handler = func(ctx context.Context, env card.Envelope) (card.Card, error) {
				return card.Card{}, card.Validation("Gratitude entry cannot be empty")
			}
			d[intent.GratitudeAdd] = e
			return d
		}
	})
	h.activate(t, "s1")

	h.classifier.out = intent.Classification{Intent: "todo.delete", Confidence: 0.8, Args: map[string]interface{}{}}
	c := h.send("s1", "get rid of the laundry one")
	assert.Equal(t, card.StatusOK, c.Status, "state conflicts are informational")
	assert.Equal(t, true, c.Meta["conflict"])

	h.classifier.out = intent.Classification{Intent: "gratitude.add", Confidence: 0.8, Args: map[string]interface{}{}}
	c = h.send("s1", "note something nice")
	require.NotNil(t, c.ErrorCode)
	assert.Equal(t, card.CodeValidation, *c.ErrorCode)
}

func TestMalformedToolCardsAreRepaired(t *testing.T) {
	tests := []struct {
		name string
		out  card.Card
	}{
		{name: "error card without type or code", out: card.Card{Status: card.StatusError}},
		{name: "zero card", out: card.Card{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(hc *harnessConfig) {
				hc.dispatch = func(calls *toolCalls) Dispatch {
					d := newDispatch(calls)
					for _, i := range []intent.Intent{intent.TodoList, intent.MeditationPlay} {
						e := d[i]
						e.Handler = func(ctx context.Context, env card.Envelope) (card.Card, error) {
							return tt.out, nil
						}
						d[i] = e
					}
					return d
				}
			})
			h.activate(t, "s1")
			rec, _ := h.o.Registry().Lookup("s1")

			c := h.send("s1", "show my todo list")
			assert.Equal(t, card.StatusError, c.Status)
			assert.Equal(t, card.TypeErrorCard, c.Type)
			assert.Equal(t, card.KindError, c.Kind())
			require.NotNil(t, c.ErrorCode)
			assert.Equal(t, card.CodeToolFailed, *c.ErrorCode)
			assert.Equal(t, "todo.list", c.Diagnostics.Tool)

			h.send("s1", "start meditation")
			assert.False(t, rec.Machine.Suspended(), "no session effect for a failed tool")
		})
	}
}

func TestSessionEndRemovesRecord(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")
	require.Equal(t, 1, h.o.Registry().Len())

	c := h.send("s1", "ok bye")

	assert.Equal(t, "session.end", c.Diagnostics.Tool)
	assert.Equal(t, 0, h.o.Registry().Len())
	assert.Equal(t, 0, h.clock.Pending(), "timers stopped")
}

func TestMeditationSuspendsAndResumes(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")
	rec, _ := h.o.Registry().Lookup("s1")

	h.send("s1", "start meditation")
	assert.True(t, rec.Machine.Suspended())

	h.clock.Advance(10 * time.Minute)
	assert.Equal(t, session.StateActive, rec.Machine.State())

	h.send("s1", "stop the meditation")
	assert.False(t, rec.Machine.Suspended())
}

func TestInactivityExpiryEndsSessionOnNextTurn(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")

	h.clock.Advance(61 * time.Second)

	// timers already ended the session; the next utterance needs activation again
	c := h.send("s1", "are you there")
	assert.Equal(t, session.ToolPrompt, c.Diagnostics.Tool)
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		req  Request
	}{
		{name: "missing trace", req: Request{Envelope: card.Envelope{UserId: "u", SessionId: "s", TsUtc: time.Now().UTC().Format(time.RFC3339)}, Text: "hi"}},
		{name: "missing session", req: Request{Envelope: card.NewEnvelope("t", "u", "", "", nil), Text: "hi"}},
		{name: "blank text", req: Request{Envelope: card.NewEnvelope("t", "u", "c", "s", nil), Text: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := h.o.Handle(context.Background(), tt.req)
			require.NotNil(t, c.ErrorCode)
			assert.Equal(t, card.CodeValidation, *c.ErrorCode)
			assert.Equal(t, card.TypeErrorCard, c.Type)
		})
	}
	assert.Equal(t, 0, h.o.Registry().Len())
}

func TestCancelledTurnIsNotActivity(t *testing.T) {
	h := newHarness(t)
	h.activate(t, "s1")
	rec, _ := h.o.Registry().Lookup("s1")
	before := rec.Machine.LastActivity()
	h.clock.Advance(5 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := h.o.Handle(ctx, request("s1", "hello?"))

	require.NotNil(t, c.ErrorCode)
	assert.Equal(t, card.CodeTurnFailed, *c.ErrorCode)
	assert.Equal(t, before, rec.Machine.LastActivity())
}

func TestConcurrentSessions(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	cards := make([]card.Card, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("s%d", i)
			h.o.Handle(context.Background(), request(sid, "hey well bot"))
			cards[i] = h.o.Handle(context.Background(), request(sid, "show my todo"))
		}(i)
	}
	wg.Wait()

	for _, c := range cards {
		assert.Equal(t, "todo.list", c.Diagnostics.Tool)
	}
	assert.Equal(t, 20, h.tools.count("todo.list"))
	assert.Equal(t, 20, h.o.Registry().Len())
}

func TestDispatchValidate(t *testing.T) {
	calls := &toolCalls{calls: map[string][]card.Envelope{}}

	assert.NoError(t, newDispatch(calls).Validate())

	missing := newDispatch(calls)
	delete(missing, intent.TodoComplete)
	assert.Error(t, missing.Validate())

	extra := newDispatch(calls)
	extra[intent.SmallTalk] = Entry{Tool: "x", Handler: extra[intent.QuoteGet].Handler}
	assert.Error(t, extra.Validate())
}
