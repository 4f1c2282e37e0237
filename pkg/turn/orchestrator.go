// FILE: pkg/turn/orchestrator.go
// PURPOSE: Per-utterance pipeline: safety, session gate, intent, then small talk or tool dispatch

package turn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/retrieval"
	"well-bot-be/pkg/safety"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/topiccache"
	"well-bot-be/pkg/upstream"
)

const module = "TurnOrchestrator"

// ArgUtterance carries the raw utterance to tools so they can extract args the
// resolver did not provide
const ArgUtterance = "utterance"

// Tool names used on cards produced by the orchestrator itself
const (
	ToolTurn   = "turn"
	ToolChat   = "llm.chat"
	ToolSafety = "safety.check"
)

// Stage of a single turn
type Stage string

const (
	StageReceived       Stage = "RECEIVED"
	StageSafetyChecked  Stage = "SAFETY_CHECKED"
	StageSessionGated   Stage = "SESSION_GATED"
	StageIntentResolved Stage = "INTENT_RESOLVED"
	StageSmallTalk      Stage = "SMALL_TALK"
	StageTool           Stage = "TOOL"
	StageResponded      Stage = "RESPONDED"
)

// Request is one utterance
type Request struct {
	Envelope card.Envelope
	Text     string
	Language string
}

// SessionID returns the session key, falling back to the conversation id
func (r Request) SessionID() string {
	if r.Envelope.SessionId != "" {
		return r.Envelope.SessionId
	}
	return r.Envelope.ConversationId
}

// SafetyChecker screens an utterance
type SafetyChecker interface {
	Check(ctx context.Context, history *safety.History, text, language string, hints map[string]interface{}) safety.Verdict
}

// IntentResolver resolves an utterance to an intent
type IntentResolver interface {
	Resolve(ctx context.Context, text string) intent.Result
}

// Memory is the retrieval gateway as seen by the small-talk branch
type Memory interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	SearchVector(ctx context.Context, userID string, vector []float32, kinds []retrieval.Kind, topK int) retrieval.Outcome
}

// Responder generates the conversational reply for small talk
type Responder interface {
	Respond(ctx context.Context, text string, snippets []string) (string, error)
}

// Observer is told about every emitted card. Calls happen after the session lock is released.
type Observer interface {
	TurnCompleted(ctx context.Context, req Request, res Summary)
}

// Summary describes a finished turn
type Summary struct {
	Card     card.Card
	Intent   intent.Result
	Verdict  safety.Verdict
	Stages   []Stage
	Duration time.Duration
}

// Config of the orchestrator
type Config struct {
	RetrievalBudget  time.Duration
	RetrievalKinds   []retrieval.Kind
	TopK             int
	ResponderTimeout time.Duration
}

// Orchestrator guarantees exactly one card per Handle call
type Orchestrator struct {
	cfg       Config
	registry  *Registry
	safety    SafetyChecker
	intents   IntentResolver
	memory    Memory
	responder Responder
	dispatch  Dispatch
	observers []Observer
	sampler   *logger.CardSampler
	log       logger.ILogger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrchestrator validates the dispatch table and builds an orchestrator. memory may
// be nil, in which case small talk is never grounded.
func NewOrchestrator(
	cfg Config,
	registry *Registry,
	safetyChecker SafetyChecker,
	intents IntentResolver,
	memory Memory,
	responder Responder,
	dispatch Dispatch,
	sampler *logger.CardSampler,
	log logger.ILogger,
	observers ...Observer,
) (*Orchestrator, error) {
	if err := dispatch.Validate(); err != nil {
		return nil, err
	}
	if cfg.ResponderTimeout <= 0 {
		cfg.ResponderTimeout = 10 * time.Second
	}
	return &Orchestrator{
		cfg:       cfg,
		registry:  registry,
		safety:    safetyChecker,
		intents:   intents,
		memory:    memory,
		responder: responder,
		dispatch:  dispatch,
		observers: observers,
		sampler:   sampler,
		log:       log,
		tracer:    otel.Tracer("well-bot/turn"),
		now:       time.Now,
	}, nil
}

// Registry exposes the session registry
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

type turnState struct {
	stages  []Stage
	verdict safety.Verdict
	intent  intent.Result
}

func (t *turnState) enter(s Stage) {
	t.stages = append(t.stages, s)
}

// Handle runs one turn
func (o *Orchestrator) Handle(ctx context.Context, req Request) (out card.Card) {
	start := o.now()
	st := &turnState{}
	st.enter(StageReceived)

	ctx, span := o.tracer.Start(ctx, "turn.handle", trace.WithAttributes(
		attribute.String("trace_id", req.Envelope.TraceId),
		attribute.String("session_id", req.SessionID()),
	))

	defer func() {
		if r := recover(); r != nil {
			o.log.Error(module, "Turn panicked", map[string]interface{}{
				"trace_id":    req.Envelope.TraceId,
				"session_id":  req.SessionID(),
				"panic":       fmt.Sprint(r),
				"stages":      stagesString(st.stages),
				"masked_text": logger.MaskText(req.Text),
			})
			out = card.Fail(ToolTurn, "Something went wrong",
				"Sorry, I couldn't process that. Let's try again.", card.CodeUnhandled)
		}
		st.enter(StageResponded)
		out = out.Stamp(out.Diagnostics.Tool, start)
		span.SetAttributes(
			attribute.String("card.tool", out.Diagnostics.Tool),
			attribute.String("card.status", string(out.Status)),
		)
		span.End()
		o.emit(ctx, req, st, out, o.now().Sub(start))
	}()

	if err := o.validate(req); err != nil {
		return card.FromError(ToolTurn, err)
	}

	rec := o.registry.Acquire(req.SessionID())
	rec.mu.Lock()
	defer rec.mu.Unlock()

	return o.run(ctx, req, rec, st)
}

func (o *Orchestrator) validate(req Request) error {
	if err := req.Envelope.Validate(); err != nil {
		return err
	}
	if req.SessionID() == "" {
		return card.Validation("invalid envelope: missing session_id")
	}
	if strings.TrimSpace(req.Text) == "" {
		return card.Validation("text is required")
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, rec *Record, st *turnState) card.Card {
	// Safety always runs first and its trigger preempts every later stage
	sctx, span := o.tracer.Start(ctx, "turn.safety")
	st.verdict = o.safety.Check(sctx, rec.Safety, req.Text, req.Language, map[string]interface{}{
		"session_state": string(rec.Machine.State()),
	})
	span.SetAttributes(attribute.String("outcome", string(st.verdict.Outcome)), attribute.Bool("triggered", st.verdict.Triggered))
	span.End()

	if st.verdict.FailedOpen() && ctx.Err() != nil {
		// transport gone before safety completed: not user activity
		return card.Fail(ToolTurn, "Turn Cancelled", "The connection closed before the turn finished.", card.CodeTurnFailed)
	}
	st.enter(StageSafetyChecked)

	if st.verdict.Triggered {
		rec.Machine.Touch()
		return safety.SupportCard(ToolSafety, st.verdict)
	}

	gate := rec.Machine.Gate(req.Text)
	st.enter(StageSessionGated)
	if !gate.Continue() {
		if gate.Decision == session.DecisionExpired {
			rec.reset()
		}
		return *gate.Card
	}

	ictx, span := o.tracer.Start(ctx, "turn.intent")
	st.intent = o.intents.Resolve(ictx, req.Text)
	span.SetAttributes(attribute.String("intent", string(st.intent.Intent)), attribute.String("source", string(st.intent.Source)))
	span.End()
	st.enter(StageIntentResolved)

	if st.intent.Intent.IsTool() {
		st.enter(StageTool)
		return o.tool(ctx, req, rec, st.intent)
	}
	st.enter(StageSmallTalk)
	return o.smallTalk(ctx, req, rec)
}

func (o *Orchestrator) tool(ctx context.Context, req Request, rec *Record, res intent.Result) card.Card {
	rec.Topics.Evict()

	entry := o.dispatch[res.Intent]
	ctx, span := o.tracer.Start(ctx, "turn.tool", trace.WithAttributes(attribute.String("tool", entry.Tool)))
	defer span.End()

	args := make(map[string]interface{}, len(req.Envelope.Args)+len(res.Args)+1)
	for k, v := range req.Envelope.Args {
		args[k] = v
	}
	args[ArgUtterance] = req.Text
	for k, v := range res.Args {
		args[k] = v
	}
	env := req.Envelope.WithArgs(args)

	c, ok := o.call(ctx, entry, env)
	if ok {
		o.applyEffect(rec, entry.Effect)
	}
	return c
}

// call invokes a tool and maps its error to a card. ok is false unless the tool
// returned a non-error card, in which case its session effect applies.
func (o *Orchestrator) call(ctx context.Context, entry Entry, env card.Envelope) (card.Card, bool) {
	c, err := invoke(ctx, entry.Handler, env)
	if err != nil {
		o.log.Error(module, "Tool failed", map[string]interface{}{
			"tool":     entry.Tool,
			"trace_id": env.TraceId,
			"error":    err.Error(),
		})
		return card.FromError(entry.Tool, err), false
	}
	raw := c
	c, ok := card.Normalize(entry.Tool, c)
	if raw.Status != c.Status || raw.Type != c.Type {
		o.log.Warn(module, "Tool returned a malformed card", map[string]interface{}{
			"tool":     entry.Tool,
			"trace_id": env.TraceId,
		})
	}
	return c, ok
}

func (o *Orchestrator) applyEffect(rec *Record, effect Effect) {
	switch effect {
	case EffectSuspend:
		rec.Machine.Suspend()
	case EffectResume:
		rec.Machine.Resume()
	case EffectEndSession:
		rec.Machine.End(session.EndManual)
		rec.reset()
		o.registry.Remove(rec.ID)
	}
}

// invoke runs a tool handler, converting a panic into an unhandled error
func invoke(ctx context.Context, h Handler, env card.Envelope) (c card.Card, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = card.Unhandled(fmt.Sprint(r), nil)
		}
	}()
	return h(ctx, env)
}

func (o *Orchestrator) smallTalk(ctx context.Context, req Request, rec *Record) card.Card {
	results, memLatency, decision := o.ground(ctx, req, rec)

	rctx, cancel := context.WithTimeout(ctx, o.cfg.ResponderTimeout)
	defer cancel()
	rctx, span := o.tracer.Start(rctx, "turn.respond")
	reply, err := respond(rctx, o.responder, req.Text, retrieval.Snippets(results))
	span.End()
	if err != nil {
		o.log.Error(module, "Responder failed", map[string]interface{}{
			"trace_id": req.Envelope.TraceId,
			"error":    err.Error(),
		})
		return card.Fail(ToolChat, "Response Failed", "I'm having trouble responding right now. Please try again.", card.CodeCompletionFailed)
	}

	memoryUsed := len(results) > 0
	c := card.OK(ToolChat, "Well Bot", reply, map[string]interface{}{
		"kind":           card.KindChat,
		"topic_decision": string(decision),
		"grounded":       memoryUsed,
	})
	c.Diagnostics.MemoryUsed = &memoryUsed
	if memLatency >= 0 {
		ms := memLatency.Milliseconds()
		c.Diagnostics.MemoryLatencyMs = &ms
	}
	return c
}

// ground returns retrieval results for small talk, consulting the topic cache first.
// Every failure yields no results.
func (o *Orchestrator) ground(ctx context.Context, req Request, rec *Record) ([]retrieval.Result, time.Duration, topiccache.Decision) {
	if o.memory == nil {
		return nil, -1, ""
	}

	start := o.now()
	gctx, cancel := context.WithTimeout(ctx, o.cfg.RetrievalBudget)
	defer cancel()
	gctx, span := o.tracer.Start(gctx, "turn.retrieval")
	defer span.End()

	vector, err := o.memory.Embed(gctx, req.Text)
	if err != nil {
		span.SetAttributes(attribute.String("outcome", "embed_failed"))
		return nil, o.now().Sub(start), ""
	}

	lookup := rec.Topics.Resolve(vector, topicLabel(req.Text), o.now(), func() ([]retrieval.Result, bool) {
		out := o.memory.SearchVector(gctx, req.Envelope.UserId, vector, o.cfg.RetrievalKinds, o.cfg.TopK)
		return out.Results, out.Status == upstream.StatusOK
	})
	span.SetAttributes(attribute.String("topic_decision", string(lookup.Decision)), attribute.Int("results", len(lookup.Value)))
	return lookup.Value, o.now().Sub(start), lookup.Decision
}

func respond(ctx context.Context, r Responder, text string, snippets []string) (reply string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("responder panicked: %v", p)
		}
	}()
	return r.Respond(ctx, text, snippets)
}

func (o *Orchestrator) emit(ctx context.Context, req Request, st *turnState, c card.Card, d time.Duration) {
	o.sampler.Record(req.Envelope.TraceId, map[string]interface{}{
		"tool":        c.Diagnostics.Tool,
		"status":      string(c.Status),
		"kind":        c.Kind(),
		"duration_ms": c.Diagnostics.DurationMs,
		"intent":      string(st.intent.Intent),
		"safety":      string(st.verdict.Outcome),
		"stages":      stagesString(st.stages),
	})
	summary := Summary{Card: c, Intent: st.intent, Verdict: st.verdict, Stages: st.stages, Duration: d}
	for _, obs := range o.observers {
		obs.TurnCompleted(ctx, req, summary)
	}
}

func topicLabel(text string) string {
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}

func stagesString(stages []Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = string(s)
	}
	return strings.Join(parts, ">")
}
