package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ArmedRepository remembers, per session, which follow-up actions a previous tool
// unlocked. todo.list arms todo.complete and todo.delete for ArmTTL.
type ArmedRepository struct {
	cache *cache.Cache
}

func NewArmedRepository(ttl time.Duration) *ArmedRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ArmedRepository{
		cache: cache.New(ttl, ttl*2),
	}
}

func key(sessionID, action string) string {
	return sessionID + "|" + action
}

func (r *ArmedRepository) Arm(sessionID string, actions ...string) {
	for _, a := range actions {
		r.cache.Set(key(sessionID, a), true, cache.DefaultExpiration)
	}
}

func (r *ArmedRepository) IsArmed(sessionID, action string) bool {
	_, found := r.cache.Get(key(sessionID, action))
	return found
}

func (r *ArmedRepository) Disarm(sessionID string, actions ...string) {
	for _, a := range actions {
		r.cache.Delete(key(sessionID, a))
	}
}
