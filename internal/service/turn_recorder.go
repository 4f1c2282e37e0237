package service

import (
	"context"
	"sync"
	"time"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/events"
	"well-bot-be/pkg/retrieval"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/turn"

	"github.com/google/uuid"
)

const recorderModule = "TurnRecorder"

var conversationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("well-bot/conversation"))

// ConversationUUID maps a session or conversation id to the conversation row key
func ConversationUUID(id string) uuid.UUID {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.NewSHA1(conversationNamespace, []byte(id))
}

type recordedTurn struct {
	req     turn.Request
	summary turn.Summary
	at      time.Time
}

// TurnRecorder persists finished turns and publishes their domain events off the
// request path. It implements turn.Observer.
type TurnRecorder struct {
	uowFactory     unitofwork.RepositoryFactory
	indexPublisher IIndexPublisher
	publisher      events.Publisher
	logger         logger.ILogger

	queue   chan recordedTurn
	timeout time.Duration
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewTurnRecorder builds a recorder with a queue of queueSize turns. publisher may be nil.
func NewTurnRecorder(
	uowFactory unitofwork.RepositoryFactory,
	indexPublisher IIndexPublisher,
	publisher events.Publisher,
	queueSize int,
	log logger.ILogger,
) *TurnRecorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &TurnRecorder{
		uowFactory:     uowFactory,
		indexPublisher: indexPublisher,
		publisher:      publisher,
		logger:         log,
		queue:          make(chan recordedTurn, queueSize),
		timeout:        5 * time.Second,
	}
}

// Start runs the worker until Stop
func (r *TurnRecorder) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for t := range r.queue {
			r.record(t)
		}
	}()
}

// Stop drains the queue and waits for the worker
func (r *TurnRecorder) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// TurnCompleted enqueues the turn. A full or stopped queue drops it.
func (r *TurnRecorder) TurnCompleted(ctx context.Context, req turn.Request, res turn.Summary) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- recordedTurn{req: req, summary: res, at: time.Now().UTC()}:
	default:
		r.logger.Warn(recorderModule, "Queue full, dropping turn", map[string]interface{}{
			"trace_id": req.Envelope.TraceId,
		})
	}
}

func (r *TurnRecorder) record(t recordedTurn) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	r.publish(ctx, t)

	if t.req.Text == "" || t.req.SessionID() == "" || t.req.Envelope.UserId == "" {
		return
	}
	if err := r.persist(ctx, t); err != nil {
		r.logger.Error(recorderModule, "Failed to persist turn", map[string]interface{}{
			"trace_id": t.req.Envelope.TraceId,
			"error":    err.Error(),
		})
	}
}

func (r *TurnRecorder) publish(ctx context.Context, t recordedTurn) {
	if r.publisher == nil {
		return
	}
	env := t.req.Envelope
	c := t.summary.Card

	evts := []events.Event{
		events.TurnCompleted(env.TraceId, env.UserId, t.req.SessionID(), string(t.summary.Intent.Intent),
			c.Kind(), c.IsError(), t.summary.Duration.Milliseconds()),
	}
	if v := t.summary.Verdict; v.Triggered {
		phrases := make([]string, len(v.Matches))
		for i, m := range v.Matches {
			phrases[i] = m.Phrase
		}
		evts = append(evts, events.SafetyTriggered(env.TraceId, env.UserId, t.req.SessionID(), string(v.Severity), phrases))
	}
	if c.Diagnostics.Tool == session.ToolEnd && !c.IsError() {
		reason, _ := c.Meta["reason"].(string)
		evts = append(evts, events.SessionEnded(env.UserId, t.req.SessionID(), reason))
	}

	for _, e := range evts {
		if err := r.publisher.Publish(ctx, e); err != nil {
			r.logger.Warn(recorderModule, "Failed to publish event", map[string]interface{}{
				"event": e.EventType(),
				"error": err.Error(),
			})
		}
	}
}

func (r *TurnRecorder) persist(ctx context.Context, t recordedTurn) error {
	userId := UserUUID(t.req.Envelope.UserId)
	conversationId := ConversationUUID(t.req.SessionID())
	c := t.summary.Card

	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationRepository().Ensure(ctx, &entity.Conversation{
		Id:        conversationId,
		UserId:    userId,
		Title:     truncateTitle(t.req.Text),
		CreatedAt: t.at,
	}); err != nil {
		return err
	}

	userMsg := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           entity.MessageRoleUser,
		Content:        t.req.Text,
		Meta:           map[string]interface{}{"trace_id": t.req.Envelope.TraceId},
		CreatedAt:      t.at,
	}
	if err := uow.MessageRepository().Create(ctx, userMsg); err != nil {
		return err
	}

	reply := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           entity.MessageRoleAssistant,
		Content:        c.Body,
		Meta: map[string]interface{}{
			"trace_id": t.req.Envelope.TraceId,
			"tool":     c.Diagnostics.Tool,
			"kind":     c.Kind(),
			"status":   string(c.Status),
			"intent":   string(t.summary.Intent.Intent),
		},
		CreatedAt: t.at.Add(time.Millisecond),
	}
	if err := uow.MessageRepository().Create(ctx, reply); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	// crisis disclosures are kept in the transcript but never become retrievable memories
	if t.summary.Verdict.Triggered {
		return nil
	}
	return r.indexPublisher.Enqueue(ctx, dto.IndexMemoryMessage{
		UserId:    userId,
		Kind:      string(retrieval.KindMessage),
		RefId:     userMsg.Id,
		Text:      userMsg.Content,
		CreatedAt: userMsg.CreatedAt,
	})
}

func truncateTitle(text string) string {
	title, truncated := TruncateWords(text, 8)
	if truncated {
		title += "..."
	}
	return title
}
