// Package inflight tracks operations that must not be started twice concurrently,
// such as submitting the same checkout or changing the same order's status.
package inflight

import (
	"errors"
	"sync"
)

var ErrInFlight = errors.New("operation already in progress")

// Guard is a set of busy keys. Unlike singleflight, a second caller is rejected rather
// than joined to the running call.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{busy: make(map[string]struct{})}
}

// Do runs fn while holding every key. If any key is already held fn is not run and
// ErrInFlight is returned. Keys are released when fn returns, whatever its result.
func (g *Guard) Do(fn func() error, keys ...string) error {
	if !g.acquire(keys) {
		return ErrInFlight
	}
	defer g.release(keys)
	return fn()
}

func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[key]
	return ok
}

func (g *Guard) acquire(keys []string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		if _, ok := g.busy[k]; ok {
			return false
		}
	}
	for _, k := range keys {
		g.busy[k] = struct{}{}
	}
	return true
}

func (g *Guard) release(keys []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		delete(g.busy, k)
	}
}
