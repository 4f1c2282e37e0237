// FILE: pkg/topiccache/cache.go
// PURPOSE: Per-session similarity-keyed memo of small-talk retrieval results

package topiccache

import (
	"math"
	"sync"
	"time"
)

// Config of a topic cache
type Config struct {
	// Threshold is the minimum cosine similarity for an utterance to be on-topic
	Threshold float64
	// TTL bounds the lifetime of an entry since its last refresh
	TTL time.Duration
	// HitCap is the number of turns an entry may serve before a forced refresh
	HitCap int
}

// Decision taken for one lookup
type Decision string

const (
	DecisionNewTopic Decision = "new_topic"
	DecisionExpired  Decision = "expired"
	DecisionHit      Decision = "hit"
	DecisionRefresh  Decision = "refresh"
)

// Fetched reports whether the lookup invoked fetch
func (d Decision) Fetched() bool {
	return d != DecisionHit
}

// Entry is the memo for the current topic
type Entry[T any] struct {
	Vector    []float32
	Label     string
	Value     T
	HitCount  int
	UpdatedAt time.Time
}

// Lookup is the outcome of Resolve
type Lookup[T any] struct {
	Decision   Decision
	Similarity float64
	Value      T
	HitCount   int
}

// Cache holds at most one entry. It is safe for concurrent use.
type Cache[T any] struct {
	mu    sync.Mutex
	cfg   Config
	entry *Entry[T]
}

// New creates an empty cache
func New[T any](cfg Config) *Cache[T] {
	return &Cache[T]{cfg: cfg}
}

// Resolve returns cached results for an on-topic vector or calls fetch. fetch
// reports false when it failed; failed results are returned but never cached and
// the current entry is dropped so the next turn retries.
func (c *Cache[T]) Resolve(vector []float32, label string, now time.Time, fetch func() (T, bool)) Lookup[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	decision := DecisionNewTopic
	similarity := 0.0

	if c.entry != nil {
		similarity = Cosine(c.entry.Vector, vector)
		switch {
		case c.cfg.TTL > 0 && now.Sub(c.entry.UpdatedAt) >= c.cfg.TTL:
			decision = DecisionExpired
		case similarity < c.cfg.Threshold:
			decision = DecisionNewTopic
		case c.entry.HitCount < c.cfg.HitCap:
			c.entry.HitCount++
			return Lookup[T]{Decision: DecisionHit, Similarity: similarity, Value: c.entry.Value, HitCount: c.entry.HitCount}
		default:
			decision = DecisionRefresh
		}
	}

	value, ok := fetch()
	if !ok {
		c.entry = nil
		return Lookup[T]{Decision: decision, Similarity: similarity, Value: value}
	}

	c.entry = &Entry[T]{
		Vector:    append([]float32(nil), vector...),
		Label:     label,
		Value:     value,
		HitCount:  0,
		UpdatedAt: now,
	}
	return Lookup[T]{Decision: decision, Similarity: similarity, Value: value}
}

// Evict discards the entry. Called on tool dispatch and session end.
func (c *Cache[T]) Evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// Entry returns a copy of the current entry
func (c *Cache[T]) Entry() (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return Entry[T]{}, false
	}
	return *c.entry, true
}

// Cosine similarity of two vectors. Mismatched or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
