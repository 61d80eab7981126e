// Package cache holds materialized expense listings keyed by viewing scope.
//
// A scope is either AllScope (the administrator aggregate) or an owner's
// identity id. Entries expire after a sliding idle TTL and are dropped by
// Invalidate. Every Invalidate stamps the scope with a fresh generation;
// a population started under an older generation is discarded instead of
// committed, so a slow read can never overwrite a newer invalidation.
package cache

import (
	"context"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
)

// AllScope is the administrator aggregate scope key.
const AllScope = "all"

// ScopeKey derives the cache partition for a viewer.
func ScopeKey(identity string, isAdmin bool) string {
	if isAdmin {
		return AllScope
	}
	return identity
}

// Loader fetches the authorized listing for a scope from the store.
type Loader func(ctx context.Context) ([]models.Expense, error)

type entry struct {
	expenses   []models.Expense
	insertedAt time.Time
	lastAccess time.Time
	ttl        time.Duration
}

func (e *entry) live(now time.Time) bool {
	return now.Sub(e.lastAccess) < e.ttl
}

type scope struct {
	generation uint64
	entry      *entry
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	Discarded     uint64 // populations dropped because the scope was invalidated meanwhile
	Entries       int
}

// ScopedCache maps scope keys to cached listings; safe for concurrent use.
type ScopedCache struct {
	mu         sync.Mutex
	scopes     map[string]*scope
	generation uint64
	ttl        time.Duration
	now        func() time.Time
	flights    singleflight.Group

	hits          atomic.Uint64
	misses        atomic.Uint64
	invalidations atomic.Uint64
	discarded     atomic.Uint64
}

// New returns an empty cache whose populated entries live for ttl after
// their last access.
func New(ttl time.Duration) *ScopedCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScopedCache{
		scopes: make(map[string]*scope),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (c *ScopedCache) WithClock(now func() time.Time) *ScopedCache {
	c.now = now
	return c
}

// TTL returns the default sliding time-to-live.
func (c *ScopedCache) TTL() time.Duration {
	return c.ttl
}

// scopeLocked returns the record for key, creating it at the current
// generation. Caller holds c.mu.
func (c *ScopedCache) scopeLocked(key string) *scope {
	s, ok := c.scopes[key]
	if !ok {
		s = &scope{generation: c.generation}
		c.scopes[key] = s
	}
	return s
}

// lookupLocked serves a live entry and refreshes its idle timer. An
// expired entry is evicted. Caller holds c.mu.
func (c *ScopedCache) lookupLocked(s *scope, now time.Time) ([]models.Expense, bool) {
	if s.entry == nil {
		return nil, false
	}
	if !s.entry.live(now) {
		s.entry = nil
		return nil, false
	}
	s.entry.lastAccess = now
	return s.entry.expenses, true
}

// Get returns the cached listing for key. The returned slice is shared
// with the cache and must not be modified.
func (c *ScopedCache) Get(key string) ([]models.Expense, bool) {
	c.mu.Lock()
	expenses, ok := c.lookupLocked(c.scopeLocked(key), c.now())
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return expenses, ok
}

// Put stores expenses under key unconditionally. A zero ttl uses the
// cache default. Readers going through GetOrLoad never use Put, so a Put
// racing an Invalidate is the caller's responsibility.
func (c *ScopedCache) Put(key string, expenses []models.Expense, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopeLocked(key).entry = &entry{
		expenses:   expenses,
		insertedAt: now,
		lastAccess: now,
		ttl:        ttl,
	}
}

// Invalidate drops the entry for key. Any population for key that began
// before this call will not be committed.
func (c *ScopedCache) Invalidate(key string) {
	c.mu.Lock()
	c.generation++
	s := c.scopeLocked(key)
	s.generation = c.generation
	s.entry = nil
	c.mu.Unlock()

	c.invalidations.Add(1)
}

// GetOrLoad serves key from the cache or populates it with load.
// Concurrent misses for the same key and generation share one load, which
// runs without the caller's cancellation and must bound itself. A caller
// whose ctx ends first gets ctx.Err() while the load carries on for the
// rest. A load error is returned as is and nothing is cached.
func (c *ScopedCache) GetOrLoad(ctx context.Context, key string, load Loader) ([]models.Expense, error) {
	c.mu.Lock()
	s := c.scopeLocked(key)
	if expenses, ok := c.lookupLocked(s, c.now()); ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return expenses, nil
	}
	generation := s.generation
	c.mu.Unlock()

	c.misses.Add(1)

	// The generation is part of the flight key so a read that starts after
	// an invalidation never joins a load that started before it.
	flight := key + "@" + strconv.FormatUint(generation, 10)
	// Callers stop waiting on their own ctx; the shared load ignores it.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(flight, func() (any, error) {
		expenses, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if expenses == nil {
			expenses = []models.Expense{}
		}
		c.commit(key, generation, expenses)
		return expenses, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Expense), nil
	}
}

func (c *ScopedCache) commit(key string, generation uint64, expenses []models.Expense) {
	now := c.now()

	c.mu.Lock()
	s := c.scopeLocked(key)
	if s.generation != generation {
		c.mu.Unlock()
		c.discarded.Add(1)
		log.Printf("[CACHE] Discarded stale population for scope %s (generation %d, current %d)", key, generation, s.generation)
		return
	}
	s.entry = &entry{
		expenses:   expenses,
		insertedAt: now,
		lastAccess: now,
		ttl:        c.ttl,
	}
	c.mu.Unlock()
}

// Sweep evicts idle entries and forgets scopes that hold nothing. It
// returns the number of entries evicted.
func (c *ScopedCache) Sweep() int {
	now := c.now()
	evicted := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, s := range c.scopes {
		if s.entry != nil && !s.entry.live(now) {
			s.entry = nil
			evicted++
		}
		// A recreated scope starts at the global generation, so a population
		// that straddled an invalidation of key still fails its commit check.
		if s.entry == nil {
			delete(c.scopes, key)
		}
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (c *ScopedCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				log.Printf("[CACHE] Swept %d idle scope(s)", n)
			}
		}
	}
}

// Stats returns a snapshot of the counters and the number of stored entries.
func (c *ScopedCache) Stats() Stats {
	c.mu.Lock()
	entries := 0
	for _, s := range c.scopes {
		if s.entry != nil {
			entries++
		}
	}
	c.mu.Unlock()

	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
		Discarded:     c.discarded.Load(),
		Entries:       entries,
	}
}
