// Package access checks whether a user is a member of the chat hub channel
// a project is bound to — the sole authorization boundary this engine
// enforces, since it has no login surface of its own. Results are cached
// for a short TTL to avoid hammering the chat platform on every operation.
package access

import (
	"context"
	"sync"
	"time"
)

// TTL is how long a membership result is trusted before being re-checked.
const TTL = 5 * time.Minute

// Oracle answers "is user a member of channel" against the chat platform.
// It is implemented outside this package (the chat integration layer);
// this package only adds a process-wide cache in front of it.
type Oracle interface {
	MemberOf(ctx context.Context, userID, channelID string) (bool, error)
}

type cacheEntry struct {
	member    bool
	expiresAt time.Time
}

// Checker wraps an Oracle with a concurrent, TTL-expiring cache keyed by
// (userID, channelID).
type Checker struct {
	oracle Oracle
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// New constructs a Checker in front of oracle, using TTL for cache entries.
func New(oracle Oracle, ttl time.Duration) *Checker {
	if ttl <= 0 {
		ttl = TTL
	}
	return &Checker{oracle: oracle, ttl: ttl, cache: make(map[string]cacheEntry)}
}

func cacheKey(userID, channelID string) string {
	return userID + "\x00" + channelID
}

// MemberOf reports whether userID belongs to channelID, serving from cache
// when the entry hasn't expired and consulting the oracle otherwise.
func (c *Checker) MemberOf(ctx context.Context, userID, channelID string) (bool, error) {
	key := cacheKey(userID, channelID)
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.member, nil
	}

	member, err := c.oracle.MemberOf(ctx, userID, channelID)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{member: member, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()

	return member, nil
}

// Invalidate drops any cached entry for (userID, channelID), forcing the
// next MemberOf call to consult the oracle.
func (c *Checker) Invalidate(userID, channelID string) {
	c.mu.Lock()
	delete(c.cache, cacheKey(userID, channelID))
	c.mu.Unlock()
}
