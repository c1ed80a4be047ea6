package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/models"
)

const defaultUserCacheSize = 10_000

// UserCache holds resolved users for authenticated requests.
// Implementations must be safe for concurrent use.
type UserCache interface {
	Get(id uuid.UUID) (*models.User, bool)
	Set(user *models.User)
	Invalidate(id uuid.UUID)
}

// MemoryUserCache is a process-local UserCache with a fixed TTL.
type MemoryUserCache struct {
	lru *expirable.LRU[uuid.UUID, models.User]
}

// NewMemoryUserCache creates a cache holding at most size users for ttl each.
func NewMemoryUserCache(size int, ttl time.Duration) *MemoryUserCache {
	if size <= 0 {
		size = defaultUserCacheSize
	}
	return &MemoryUserCache{lru: expirable.NewLRU[uuid.UUID, models.User](size, nil, ttl)}
}

// Get returns a copy of the cached user.
func (c *MemoryUserCache) Get(id uuid.UUID) (*models.User, bool) {
	user, ok := c.lru.Get(id)
	metrics.CacheResult("user", ok)
	if !ok {
		return nil, false
	}
	return &user, true
}

func (c *MemoryUserCache) Set(user *models.User) {
	if user == nil {
		return
	}
	stored := *user
	stored.Orders = nil
	c.lru.Add(user.ID, stored)
}

func (c *MemoryUserCache) Invalidate(id uuid.UUID) {
	c.lru.Remove(id)
}

// Len returns the number of live entries.
func (c *MemoryUserCache) Len() int {
	return c.lru.Len()
}
