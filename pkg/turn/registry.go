package turn

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"well-bot-be/pkg/card"
	"well-bot-be/pkg/retrieval"
	"well-bot-be/pkg/safety"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/topiccache"
)

// Record is everything the pipeline keeps for one live session. mu serializes turns
// of the same session so state mutations apply in arrival order.
type Record struct {
	mu      sync.Mutex
	ID      string
	Machine *session.Machine
	Topics  *topiccache.Cache[[]retrieval.Result]
	Safety  *safety.History
}

// reset drops per-session memos at session end
func (r *Record) reset() {
	r.Topics.Evict()
	r.Safety.Reset()
}

// RegistryConfig configures record creation and idle eviction
type RegistryConfig struct {
	Session     session.Config
	TopicCache  topiccache.Config
	IdleTimeout time.Duration
	Clock       session.Clock
}

// Registry maps session ids to records. Records are created on first use and removed
// on session end or after IdleTimeout without a turn.
type Registry struct {
	mu     sync.Mutex
	items  *cache.Cache
	cfg    RegistryConfig
	notify session.Notifier
}

// NewRegistry creates a registry. notify receives cards produced by session timers.
func NewRegistry(cfg RegistryConfig, notify session.Notifier) *Registry {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = session.RealClock
	}
	r := &Registry{
		items:  cache.New(cfg.IdleTimeout, cfg.IdleTimeout/2),
		cfg:    cfg,
		notify: notify,
	}
	r.items.OnEvicted(func(_ string, v interface{}) {
		v.(*Record).Machine.Close()
	})
	return r
}

// Acquire returns the record for id, creating it when absent, and extends its idle deadline
func (r *Registry) Acquire(id string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.items.Get(id); found {
		rec := v.(*Record)
		r.items.Set(id, rec, cache.DefaultExpiration)
		return rec
	}

	rec := &Record{
		ID:     id,
		Topics: topiccache.New[[]retrieval.Result](r.cfg.TopicCache),
		Safety: safety.NewHistory(),
	}
	rec.Machine = session.NewMachine(id, r.cfg.Session,
		session.WithClock(r.cfg.Clock),
		session.WithNotifier(func(sessionID string, c card.Card) {
			if c.Diagnostics.Tool == session.ToolEnd {
				rec.reset()
				r.Remove(sessionID)
			}
			if r.notify != nil {
				r.notify(sessionID, c)
			}
		}),
	)
	r.items.Set(id, rec, cache.DefaultExpiration)
	return rec
}

// Lookup returns the record for id without creating it
func (r *Registry) Lookup(id string) (*Record, bool) {
	v, found := r.items.Get(id)
	if !found {
		return nil, false
	}
	return v.(*Record), true
}

// Remove drops the record and stops its timers
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.Delete(id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	return r.items.ItemCount()
}
