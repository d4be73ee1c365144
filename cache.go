package minimax

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// singletonCache holds one handle per implementation type tag.
//
// Entries are inserted at most once per tag and only removed when the cache
// is closed. Lookups hand out clones, the cache keeps its own holder.
type singletonCache struct {
	mu      sync.RWMutex
	entries map[TypeTag]AnyHandle
	closed  bool
}

func newSingletonCache() *singletonCache {
	return &singletonCache{
		entries: make(map[TypeTag]AnyHandle),
	}
}

func (c *singletonCache) get(tag TypeTag) (AnyHandle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if existing, found := c.entries[tag]; found {
		return existing.CloneShared(), true
	}
	return nil, false
}

// putIfAbsent stores h unless another handle won the race for tag. The
// returned handle is a clone of the cached one. When inserted is false the
// caller still owns h and should release it.
func (c *singletonCache) putIfAbsent(tag TypeTag, h AnyHandle) (winner AnyHandle, inserted bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, ErrProviderClosed
	}
	if existing, found := c.entries[tag]; found {
		return existing.CloneShared(), false, nil
	}
	c.entries[tag] = h
	return h.CloneShared(), true, nil
}

func (c *singletonCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *singletonCache) tags() []TypeTag {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tags := make([]TypeTag, 0, len(c.entries))
	for tag := range c.entries {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, func(a, b TypeTag) int {
		return strings.Compare(a.String(), b.String())
	})
	return tags
}

// close releases every cached handle and returns how many there were. The
// cache refuses new entries after.
func (c *singletonCache) close() (int, error) {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[TypeTag]AnyHandle)
	c.closed = true
	c.mu.Unlock()

	closeErrors := make([]error, 0)
	for tag, h := range entries {
		if err := h.Release(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to release singleton %s:\n\t%w", tag, err))
		}
	}
	return len(entries), errors.Join(closeErrors...)
}
