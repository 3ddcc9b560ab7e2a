// Package lock provides per-key mutual exclusion for the check-then-capture
// sequence. Two racing requests for the same payment ID must not interleave
// between reading the payment status and issuing the capture call.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Keyed executes a callback while holding a lock scoped to the given key.
type Keyed interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Mutex is an in-process Keyed implementation backed by a lock map. Suitable
// for single-replica deployments; multi-replica setups should use the Redis
// variant instead.
type Mutex struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// WithLock runs fn while holding the key's lock, waiting for the current
// holder if necessary. The ttl is ignored: an in-process lock cannot leak
// past the lifetime of the callback.
func (m *Mutex) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	entry := m.acquireEntry(key)
	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		m.releaseEntry(key, entry, false)
		return ctx.Err()
	}
	defer m.releaseEntry(key, entry, true)
	return fn(ctx)
}

func (m *Mutex) acquireEntry(key string) *keyLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = make(map[string]*keyLock)
	}
	entry, ok := m.keys[key]
	if !ok {
		entry = &keyLock{ch: make(chan struct{}, 1)}
		m.keys[key] = entry
	}
	entry.refs++
	return entry
}

func (m *Mutex) releaseEntry(key string, entry *keyLock, held bool) {
	if held {
		<-entry.ch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.refs--
	if entry.refs <= 0 {
		delete(m.keys, key)
	}
}
