package memory

import (
	"sync"
	"time"

	"tarot-oracle-be/internal/entity"
)

const DefaultAnonymousTTL = 30 * time.Minute

// Clock returns the current time. Tests inject a controllable one.
type Clock func() time.Time

type anonymousEntry struct {
	messages    []entity.CachedMessage
	lastTouched time.Time
}

// AnonymousCache buffers full, unfiltered messages of conversations whose
// owner has not signed in yet. Entries expire ttl after their last append
// and are purged lazily: every Append sweeps the whole map. There is no
// background timer.
type AnonymousCache struct {
	mu      sync.Mutex
	entries map[string]*anonymousEntry
	ttl     time.Duration
	now     Clock
}

func NewAnonymousCache(ttl time.Duration, now Clock) *AnonymousCache {
	if ttl <= 0 {
		ttl = DefaultAnonymousTTL
	}
	if now == nil {
		now = time.Now
	}
	return &AnonymousCache{
		entries: make(map[string]*anonymousEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *AnonymousCache) expired(e *anonymousEntry, now time.Time) bool {
	return !now.Before(e.lastTouched.Add(c.ttl))
}

// Append adds msg to the conversation, creating the entry if needed, then
// sweeps expired entries.
func (c *AnonymousCache) Append(conversationID string, msg entity.CachedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[conversationID]
	if !ok || c.expired(e, now) {
		e = &anonymousEntry{}
		c.entries[conversationID] = e
	}
	e.messages = append(e.messages, msg)
	e.lastTouched = now

	c.sweepLocked(now)
}

// Drain returns and removes the conversation's messages. It reports false
// when nothing is cached or the entry has expired. An entry is consumed at
// most once.
func (c *AnonymousCache) Drain(conversationID string) ([]entity.CachedMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[conversationID]
	if !ok {
		return nil, false
	}
	delete(c.entries, conversationID)
	if c.expired(e, c.now()) || len(e.messages) == 0 {
		return nil, false
	}
	return e.messages, true
}

// Restore puts drained messages back in front of anything appended since,
// and restarts the entry's ttl.
func (c *AnonymousCache) Restore(conversationID string, msgs []entity.CachedMessage) {
	if len(msgs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	restored := append([]entity.CachedMessage(nil), msgs...)
	if e, ok := c.entries[conversationID]; ok && !c.expired(e, now) {
		restored = append(restored, e.messages...)
	}
	c.entries[conversationID] = &anonymousEntry{messages: restored, lastTouched: now}
}

// Sweep deletes every expired entry and returns how many were removed.
func (c *AnonymousCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

func (c *AnonymousCache) sweepLocked(now time.Time) int {
	removed := 0
	for id, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}
