package identity

import (
	"sync"

	"github.com/google/uuid"
)

// CredentialCache stores per-session credentials on the client's behalf.
// Browsers use local storage; headless clients and tests use MemoryCache.
type CredentialCache interface {
	Save(sessionID uuid.UUID, c Cached)
	Load(sessionID uuid.UUID) (Cached, bool)
	Clear(sessionID uuid.UUID)
}

type MemoryCache struct {
	mu sync.Mutex
	m  map[uuid.UUID]Cached
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[uuid.UUID]Cached)}
}

func (c *MemoryCache) Save(sessionID uuid.UUID, cached Cached) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[sessionID] = cached
}

func (c *MemoryCache) Load(sessionID uuid.UUID) (Cached, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.m[sessionID]
	return cached, ok
}

func (c *MemoryCache) Clear(sessionID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, sessionID)
}
