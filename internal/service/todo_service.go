package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/memory"
	"well-bot-be/internal/repository/specification"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/retrieval"

	"github.com/google/uuid"
)

const (
	ToolTodoAdd      = "todo.add"
	ToolTodoList     = "todo.list"
	ToolTodoComplete = "todo.complete"
	ToolTodoDelete   = "todo.delete"

	maxTodoWords     = 20
	maxTodosPerCall  = 10
	todoMatchMinimum = 0.6
)

type ITodoService interface {
	Add(ctx context.Context, env card.Envelope) (card.Card, error)
	List(ctx context.Context, env card.Envelope) (card.Card, error)
	Complete(ctx context.Context, env card.Envelope) (card.Card, error)
	Delete(ctx context.Context, env card.Envelope) (card.Card, error)
}

type todoService struct {
	uowFactory     unitofwork.RepositoryFactory
	armed          *memory.ArmedRepository
	indexPublisher IIndexPublisher
	activity       IActivityRecorder
	logger         logger.ILogger
}

func NewTodoService(
	uowFactory unitofwork.RepositoryFactory,
	armed *memory.ArmedRepository,
	indexPublisher IIndexPublisher,
	activity IActivityRecorder,
	log logger.ILogger,
) ITodoService {
	return &todoService{
		uowFactory:     uowFactory,
		armed:          armed,
		indexPublisher: indexPublisher,
		activity:       activity,
		logger:         log,
	}
}

// normalizeTodoTitles title-cases and truncates each title, dropping blanks and
// keeping at most maxTodosPerCall
func normalizeTodoTitles(raw []string) []string {
	titles := make([]string, 0, len(raw))
	for _, t := range raw {
		t, _ = TruncateWords(t, maxTodoWords)
		if t == "" {
			continue
		}
		titles = append(titles, TitleCase(t))
		if len(titles) == maxTodosPerCall {
			break
		}
	}
	return titles
}

func (s *todoService) Add(ctx context.Context, env card.Envelope) (card.Card, error) {
	raw := env.Strings("titles")
	if len(raw) == 0 {
		if content := argOrExtract(env, "content", intent.ArgExtractors[intent.TodoAdd]); content != "" {
			raw = []string{content}
		}
	}
	titles := normalizeTodoTitles(raw)
	if len(titles) == 0 {
		return card.Card{}, card.Validation("Please tell me what to add to your to-do list")
	}

	userId := UserUUID(env.UserId)
	now := time.Now().UTC()
	items := make([]*entity.TodoItem, len(titles))
	for i, title := range titles {
		items[i] = &entity.TodoItem{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     title,
			Status:    entity.TodoStatusOpen,
			CreatedAt: now,
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TodoRepository().CreateBulk(ctx, items); err != nil {
		return card.Card{}, fmt.Errorf("save todos: %w", err)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.Id.String()
		s.index(ctx, item)
		s.activity.Record(ctx, userId, "todo", &item.Id, "add", nil)
	}

	meta := map[string]interface{}{"kind": card.KindTodo, "items_added": len(items)}
	body := fmt.Sprintf("Added %d items to your to-do list.", len(items))
	if env.Bool("return_list_after", true) {
		open, err := s.openItems(ctx, userId)
		if err != nil {
			return card.Card{}, err
		}
		s.armed.Arm(sessionKey(env), ToolTodoComplete, ToolTodoDelete)
		body = "To-Do List (Updated):\n" + bullets(open)
		meta["count"] = len(open)
	}

	return card.OK(ToolTodoAdd, "To-Do Items Added", body, meta).WithPersisted(ids[0], ids[1:]...), nil
}

func (s *todoService) List(ctx context.Context, env card.Envelope) (card.Card, error) {
	open, err := s.openItems(ctx, UserUUID(env.UserId))
	if err != nil {
		return card.Card{}, err
	}
	s.armed.Arm(sessionKey(env), ToolTodoComplete, ToolTodoDelete)

	body := "Your to-do list is empty."
	if len(open) > 0 {
		body = "Your open to-do items:\n" + bullets(open)
	}
	return card.OK(ToolTodoList, "To-Do List", body,
		map[string]interface{}{"kind": card.KindTodo, "count": len(open)}), nil
}

func (s *todoService) Complete(ctx context.Context, env card.Envelope) (card.Card, error) {
	item, miss, err := s.target(ctx, env, ToolTodoComplete, intent.TodoComplete)
	if err != nil || item == nil {
		return miss, err
	}

	now := time.Now().UTC()
	item.Status = entity.TodoStatusDone
	item.CompletedAt = &now
	if err := s.uowFactory.NewUnitOfWork(ctx).TodoRepository().Update(ctx, item); err != nil {
		return card.Card{}, fmt.Errorf("complete todo: %w", err)
	}
	s.activity.Record(ctx, item.UserId, "todo", &item.Id, "complete", nil)

	return card.OK(ToolTodoComplete, "To-Do Completed",
		fmt.Sprintf("Marked '%s' as completed. Great job!", item.Title),
		map[string]interface{}{"kind": card.KindTodo, "action": "complete"},
	).WithPersisted(item.Id.String()), nil
}

func (s *todoService) Delete(ctx context.Context, env card.Envelope) (card.Card, error) {
	item, miss, err := s.target(ctx, env, ToolTodoDelete, intent.TodoDelete)
	if err != nil || item == nil {
		return miss, err
	}

	if err := s.uowFactory.NewUnitOfWork(ctx).TodoRepository().Delete(ctx, item.Id); err != nil {
		return card.Card{}, fmt.Errorf("delete todo: %w", err)
	}
	s.activity.Record(ctx, item.UserId, "todo", &item.Id, "delete", nil)

	return card.OK(ToolTodoDelete, "To-Do Deleted",
		fmt.Sprintf("Deleted '%s' from your to-do list.", item.Title),
		map[string]interface{}{"kind": card.KindTodo, "action": "delete"},
	).WithPersisted(item.Id.String()), nil
}

// target checks the armed precondition and finds the open item the envelope refers
// to. A nil item with a nil error means nothing matched and miss is the card to show.
func (s *todoService) target(ctx context.Context, env card.Envelope, tool string, in intent.Intent) (*entity.TodoItem, card.Card, error) {
	if !s.armed.IsArmed(sessionKey(env), tool) {
		return nil, card.Card{}, card.Conflict("Let's look at your to-do list first. Say \"show my to-do list\" and then tell me which item.")
	}

	open, err := s.openItems(ctx, UserUUID(env.UserId))
	if err != nil {
		return nil, card.Card{}, err
	}

	if raw := env.String("item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, card.Card{}, card.Validation("item_id must be a UUID")
		}
		for _, item := range open {
			if item.Id == id {
				return item, card.Card{}, nil
			}
		}
		return nil, notFoundCard(tool, raw), nil
	}

	query := env.String("title")
	if query == "" {
		query = argOrExtract(env, "item", intent.ArgExtractors[in])
	}
	if query == "" {
		return nil, card.Card{}, card.Validation("Please tell me which to-do item you mean")
	}

	titles := make([]string, len(open))
	for i, item := range open {
		titles[i] = item.Title
	}
	if i := bestMatch(query, titles, todoMatchMinimum); i >= 0 {
		return open[i], card.Card{}, nil
	}
	return nil, notFoundCard(tool, query), nil
}

func notFoundCard(tool, query string) card.Card {
	return card.OK(tool, "To-Do Not Found",
		fmt.Sprintf("I couldn't find '%s' on your to-do list.", query),
		map[string]interface{}{"kind": card.KindInfo})
}

func (s *todoService) openItems(ctx context.Context, userId uuid.UUID) ([]*entity.TodoItem, error) {
	items, err := s.uowFactory.NewUnitOfWork(ctx).TodoRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.ByStatus{Status: entity.TodoStatusOpen},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return items, nil
}

func (s *todoService) index(ctx context.Context, item *entity.TodoItem) {
	err := s.indexPublisher.Enqueue(ctx, dto.IndexMemoryMessage{
		UserId:    item.UserId,
		Kind:      string(retrieval.KindTodo),
		RefId:     item.Id,
		Text:      item.Title,
		CreatedAt: item.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("TodoService", "Failed to queue todo for indexing", map[string]interface{}{
			"todo_id": item.Id,
			"error":   err.Error(),
		})
	}
}

func bullets(items []*entity.TodoItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item.Title
	}
	return strings.Join(lines, "\n")
}
