package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/memory"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type todoFixture struct {
	svc      ITodoService
	uow      *fakeUoW
	index    *fakeIndexPublisher
	activity *fakeRecorder
}

func newTodoFixture() *todoFixture {
	f := &todoFixture{
		uow:      newFakeUoW(),
		index:    &fakeIndexPublisher{},
		activity: &fakeRecorder{},
	}
	f.svc = NewTodoService(fakeFactory{uow: f.uow}, memory.NewArmedRepository(time.Minute), f.index, f.activity, logger.NewNopLogger())
	return f
}

func todoEnv(session string, args map[string]interface{}) card.Envelope {
	return card.NewEnvelope("trace-1", "user-1", "", session, args)
}

func TestTodoAdd(t *testing.T) {
	f := newTodoFixture()

	c, err := f.svc.Add(context.Background(), todoEnv("s1", map[string]interface{}{
		"titles": []interface{}{"buy MILK", "  ", "call mom tonight"},
	}))
	require.NoError(t, err)

	assert.Equal(t, card.StatusOK, c.Status)
	assert.Equal(t, "To-Do Items Added", c.Title)
	assert.Equal(t, "To-Do List (Updated):\n• Buy Milk\n• Call Mom Tonight", c.Body)
	assert.Equal(t, 2, c.Meta["items_added"])
	assert.NotEmpty(t, c.PersistedIds.PrimaryId)
	assert.Len(t, c.PersistedIds.Extra, 1)

	assert.Equal(t, []string{"Buy Milk", "Call Mom Tonight"}, f.uow.todos.titles())
	require.Len(t, f.index.messages, 2)
	assert.Equal(t, string(retrieval.KindTodo), f.index.messages[0].Kind)
	assert.Len(t, f.activity.calls, 2)
}

func TestTodoAddLimits(t *testing.T) {
	f := newTodoFixture()

	titles := make([]interface{}, 0, 12)
	for i := 0; i < 12; i++ {
		titles = append(titles, "task")
	}
	long := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone"

	_, err := f.svc.Add(context.Background(), todoEnv("s1", map[string]interface{}{
		"titles":            append([]interface{}{long}, titles...),
		"return_list_after": false,
	}))
	require.NoError(t, err)

	got := f.uow.todos.titles()
	assert.Len(t, got, maxTodosPerCall)
	assert.NotContains(t, got[0], "Twentyone")
}

func TestTodoAddFromContent(t *testing.T) {
	f := newTodoFixture()

	c, err := f.svc.Add(context.Background(), todoEnv("s1", map[string]interface{}{
		"content":           "water the plants",
		"return_list_after": false,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Added 1 items to your to-do list.", c.Body)
	assert.Equal(t, []string{"Water The Plants"}, f.uow.todos.titles())
}

func TestTodoAddRequiresTitle(t *testing.T) {
	f := newTodoFixture()

	_, err := f.svc.Add(context.Background(), todoEnv("s1", nil))
	assert.Equal(t, card.KindValidation, card.KindOf(err))
	assert.Empty(t, f.uow.todos.titles())
}

func TestTodoAddStorageFailure(t *testing.T) {
	f := newTodoFixture()
	f.uow.todos.fail = errors.New("db down")

	_, err := f.svc.Add(context.Background(), todoEnv("s1", map[string]interface{}{"titles": []interface{}{"x"}}))
	require.Error(t, err)
	assert.Equal(t, card.KindUnhandled, card.KindOf(err))
	assert.Empty(t, f.index.messages)
}

func TestTodoListEmpty(t *testing.T) {
	f := newTodoFixture()

	c, err := f.svc.List(context.Background(), todoEnv("s1", nil))
	require.NoError(t, err)
	assert.Equal(t, "Your to-do list is empty.", c.Body)
	assert.Equal(t, 0, c.Meta["count"])
}

func TestTodoCompleteRequiresArming(t *testing.T) {
	f := newTodoFixture()
	f.uow.todos.items = []*entity.TodoItem{{Title: "Buy Milk", Status: entity.TodoStatusOpen}}

	_, err := f.svc.Complete(context.Background(), todoEnv("s1", map[string]interface{}{"title": "milk"}))
	assert.Equal(t, card.KindStateConflict, card.KindOf(err))
	assert.Equal(t, entity.TodoStatusOpen, f.uow.todos.items[0].Status)
}

func TestTodoCompleteAndDelete(t *testing.T) {
	f := newTodoFixture()
	ctx := context.Background()

	_, err := f.svc.Add(ctx, todoEnv("s1", map[string]interface{}{"titles": []interface{}{"buy milk", "call mom"}}))
	require.NoError(t, err)

	c, err := f.svc.Complete(ctx, todoEnv("s1", map[string]interface{}{"title": "milk"}))
	require.NoError(t, err)
	assert.Equal(t, "Marked 'Buy Milk' as completed. Great job!", c.Body)

	open, err := f.uow.todos.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.TodoStatusDone, open[0].Status)
	assert.NotNil(t, open[0].CompletedAt)

	c, err = f.svc.Delete(ctx, todoEnv("s1", map[string]interface{}{"title": "call mom"}))
	require.NoError(t, err)
	assert.Equal(t, "Deleted 'Call Mom' from your to-do list.", c.Body)
	assert.Equal(t, []string{"Buy Milk"}, f.uow.todos.titles())
}

func TestTodoTargetMisses(t *testing.T) {
	f := newTodoFixture()
	ctx := context.Background()

	_, err := f.svc.Add(ctx, todoEnv("s1", map[string]interface{}{"titles": []interface{}{"buy milk"}}))
	require.NoError(t, err)

	tests := []struct {
		name  string
		args  map[string]interface{}
		kind  card.ErrorKind
		title string
	}{
		{name: "no match", args: map[string]interface{}{"title": "file taxes"}, title: "To-Do Not Found"},
		{name: "unknown id", args: map[string]interface{}{"item_id": "7d7cbd3b-2c5e-4c55-9a55-2a0b5d1f1a11"}, title: "To-Do Not Found"},
		{name: "bad id", args: map[string]interface{}{"item_id": "nope"}, kind: card.KindValidation},
		{name: "nothing named", args: map[string]interface{}{}, kind: card.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := f.svc.Delete(ctx, todoEnv("s1", tt.args))
			if tt.kind != "" {
				assert.Equal(t, tt.kind, card.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, c.Title)
		})
	}
	assert.Equal(t, []string{"Buy Milk"}, f.uow.todos.titles())
}

func TestTodoArmingIsPerSession(t *testing.T) {
	f := newTodoFixture()
	ctx := context.Background()

	_, err := f.svc.List(ctx, todoEnv("s1", nil))
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, todoEnv("s2", map[string]interface{}{"title": "milk"}))
	assert.Equal(t, card.KindStateConflict, card.KindOf(err))
}
