package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/entity"
	"well-bot-be/internal/repository/contract"
	"well-bot-be/internal/repository/specification"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/llm"

	"github.com/google/uuid"
)

// fakeUoW serves in-memory repositories. Repositories a test does not set panic
// through the nil embedded interface.
type fakeUoW struct {
	unitofwork.UnitOfWork
	todos      *fakeTodoRepo
	gratitude  *fakeGratitudeRepo
	events     *fakeActivityRepo
	journals   *fakeJournalRepo
	quotes     *fakeQuoteRepo
	prefs      *fakePreferenceRepo
	meditation *fakeMeditationRepo
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{
		todos:      &fakeTodoRepo{},
		gratitude:  &fakeGratitudeRepo{},
		events:     &fakeActivityRepo{},
		journals:   &fakeJournalRepo{},
		quotes:     &fakeQuoteRepo{seen: map[uuid.UUID]time.Time{}},
		prefs:      &fakePreferenceRepo{},
		meditation: &fakeMeditationRepo{},
	}
}

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) TodoRepository() contract.TodoRepository                   { return u.todos }
func (u *fakeUoW) GratitudeRepository() contract.GratitudeRepository         { return u.gratitude }
func (u *fakeUoW) ActivityEventRepository() contract.ActivityEventRepository { return u.events }
func (u *fakeUoW) JournalRepository() contract.JournalRepository             { return u.journals }
func (u *fakeUoW) QuoteRepository() contract.QuoteRepository                 { return u.quotes }
func (u *fakeUoW) PreferenceRepository() contract.PreferenceRepository       { return u.prefs }
func (u *fakeUoW) MeditationRepository() contract.MeditationRepository       { return u.meditation }

type fakeFactory struct{ uow *fakeUoW }

func (f fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeTodoRepo struct {
	mu    sync.Mutex
	items []*entity.TodoItem
	fail  error
}

func (r *fakeTodoRepo) CreateBulk(ctx context.Context, items []*entity.TodoItem) error {
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, items...)
	return nil
}

func (r *fakeTodoRepo) Update(ctx context.Context, item *entity.TodoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.Id == item.Id {
			r.items[i] = item
			return nil
		}
	}
	return errors.New("not found")
}

func (r *fakeTodoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.Id == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

// FindAll only honours the status filter
func (r *fakeTodoRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TodoItem, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	status := ""
	for _, s := range specs {
		if bs, ok := s.(specification.ByStatus); ok {
			status = bs.Status
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TodoItem
	for _, it := range r.items {
		if status == "" || it.Status == status {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTodoRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	items, err := r.FindAll(ctx, specs...)
	return int64(len(items)), err
}

func (r *fakeTodoRepo) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, it := range r.items {
		out[i] = it.Title
	}
	return out
}

type fakeGratitudeRepo struct {
	items []*entity.GratitudeItem
}

func (r *fakeGratitudeRepo) Create(ctx context.Context, item *entity.GratitudeItem) error {
	r.items = append(r.items, item)
	return nil
}

func (r *fakeGratitudeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GratitudeItem, error) {
	return r.items, nil
}

type fakeActivityRepo struct {
	events []*entity.ActivityEvent
}

func (r *fakeActivityRepo) Create(ctx context.Context, event *entity.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeActivityRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ActivityEvent, error) {
	return r.events, nil
}

type recordedActivity struct {
	Type   string
	Action string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedActivity
}

func (r *fakeRecorder) Record(ctx context.Context, userId uuid.UUID, activityType string, refId *uuid.UUID, action string, meta map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedActivity{Type: activityType, Action: action})
}

type fakeIndexPublisher struct {
	mu       sync.Mutex
	messages []dto.IndexMemoryMessage
	fail     error
}

func (p *fakeIndexPublisher) Enqueue(ctx context.Context, req dto.IndexMemoryMessage) error {
	if p.fail != nil {
		return p.fail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, req)
	return nil
}

type fakeJournalRepo struct {
	items []*entity.Journal
	fail  error
}

func (r *fakeJournalRepo) Create(ctx context.Context, journal *entity.Journal) error {
	if r.fail != nil {
		return r.fail
	}
	r.items = append(r.items, journal)
	return nil
}

func (r *fakeJournalRepo) Update(ctx context.Context, journal *entity.Journal) error {
	return nil
}

func (r *fakeJournalRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Journal, error) {
	if len(r.items) == 0 {
		return nil, nil
	}
	return r.items[0], nil
}

func (r *fakeJournalRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Journal, error) {
	return r.items, nil
}

// fakeQuoteRepo picks the first quote of the category not seen since the cutoff.
// seen is keyed by quote id for a single test user.
type fakeQuoteRepo struct {
	quotes    []entity.Quote
	seen      map[uuid.UUID]time.Time
	requested []string
}

func (r *fakeQuoteRepo) PickUnseen(ctx context.Context, userId uuid.UUID, category string, since time.Time) (*entity.Quote, error) {
	r.requested = append(r.requested, category)
	for _, q := range r.quotes {
		if q.Category != category {
			continue
		}
		if at, ok := r.seen[q.Id]; ok && at.After(since) {
			continue
		}
		cp := q
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeQuoteRepo) MarkSeen(ctx context.Context, userId, quoteId uuid.UUID, at time.Time) error {
	r.seen[quoteId] = at
	return nil
}

func (r *fakeQuoteRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.quotes)), nil
}

type fakePreferenceRepo struct {
	pref *entity.UserPreference
}

func (r *fakePreferenceRepo) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.UserPreference, error) {
	return r.pref, nil
}

func (r *fakePreferenceRepo) Upsert(ctx context.Context, pref *entity.UserPreference) error {
	r.pref = pref
	return nil
}

type fakeMeditationRepo struct {
	video *entity.MeditationVideo
	logs  []*entity.MeditationLog
}

func (r *fakeMeditationRepo) RandomVideo(ctx context.Context) (*entity.MeditationVideo, error) {
	return r.video, nil
}

func (r *fakeMeditationRepo) CreateLog(ctx context.Context, log *entity.MeditationLog) error {
	r.logs = append(r.logs, log)
	return nil
}

// fakeLLM answers Generate with a fixed reply or error, optionally after a delay
type fakeLLM struct {
	reply string
	err   error
	delay time.Duration
}

func (l *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return l.Generate(ctx, "", options...)
}

func (l *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return l.reply, l.err
}
