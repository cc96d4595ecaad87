// Package guard provides a mutex-protected value that recovers from panics
// raised while the lock is held.
package guard

import "sync"

// Value protects a T with a single exclusive lock.
//
// If a function passed to Do panics, the value is marked poisoned before the
// lock is released and the panic continues to unwind. The next caller of Do
// resets the value with the reset function before using it, so one failed
// holder never blocks or corrupts later access.
type Value[T any] struct {
	mu       sync.Mutex
	val      T
	poisoned bool
	reset    func(*T)
}

// New returns a Value holding v. reset restores the value to an empty state
// after a poisoning panic; it must not panic itself.
func New[T any](v T, reset func(*T)) *Value[T] {
	return &Value[T]{val: v, reset: reset}
}

// Do runs fn with exclusive access to the value.
func (g *Value[T]) Do(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poisoned {
		if g.reset != nil {
			g.reset(&g.val)
		}
		g.poisoned = false
	}

	done := false
	defer func() {
		if !done {
			g.poisoned = true
		}
	}()
	fn(&g.val)
	done = true
}

// Poisoned reports whether the last holder panicked and no caller has
// recovered the value yet.
func (g *Value[T]) Poisoned() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.poisoned
}
