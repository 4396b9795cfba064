package cache

import (
	"sync"
	"time"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
)

// Users is a small read-through TTL cache for user records keyed by id.
// Profile and /auth/me reads hit it; every mutation path invalidates the id.
type Users struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
}

type entry struct {
	u   user.User
	exp time.Time
}

func NewUsers(ttl time.Duration) *Users {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Users{
		ttl: ttl,
		m:   make(map[string]entry),
	}
}

func (c *Users) Get(id string) (user.User, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[id]
	c.mu.RUnlock()
	if !ok {
		return user.User{}, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, id)
		c.mu.Unlock()
		return user.User{}, false
	}

	return e.u, true
}

func (c *Users) Set(u user.User) {
	c.mu.Lock()
	c.m[u.ID] = entry{u: u, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Users) Invalidate(id string) {
	c.mu.Lock()
	delete(c.m, id)
	c.mu.Unlock()
}

func (c *Users) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
