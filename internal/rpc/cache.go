package rpc

import (
	"sync"

	"github.com/classgraph/internal/query"
)

// Cache holds the most recently built query.Engine per job UUID, so the
// query server can answer structural queries without re-scanning. Bounded
// by maxEntries; eviction is oldest-inserted-first, which is sufficient
// for a process that mostly queries jobs shortly after they complete.
type Cache struct {
	mu         sync.RWMutex
	maxEntries int
	order      []string
	engines    map[string]*query.Engine
}

// NewCache creates an empty Cache holding at most maxEntries engines.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 16
	}
	return &Cache{
		maxEntries: maxEntries,
		engines:    make(map[string]*query.Engine),
	}
}

// Put stores the engine for a job UUID, evicting the oldest entry if full.
func (c *Cache) Put(jobUUID string, engine *query.Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.engines[jobUUID]; !exists {
		if len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.engines, oldest)
		}
		c.order = append(c.order, jobUUID)
	}
	c.engines[jobUUID] = engine
}

// Get returns the cached engine for a job UUID, if present.
func (c *Cache) Get(jobUUID string) (*query.Engine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.engines[jobUUID]
	return e, ok
}
