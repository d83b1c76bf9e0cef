// Package cmap provides a map of guarded cells. Each cell carries a value
// together with a mutex and a condition variable, so callers can serialize
// access per key and block until a predicate holds on the value. Cells are
// created lazily on first access and live until the map is cleared.
package cmap

import (
	"reflect"
	"sync"
)

// Cell is a guarded value. Reads and writes on the same cell are serialized;
// there is no ordering across cells. Every completed Read or Write, and every
// Set that stores a new value, broadcasts on the cell's condition variable,
// waking any WaitUntil callers. Get does not broadcast.
type Cell[V any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	val     V
	differs func(old, next V) bool
}

func newCell[V any](val V, differs func(old, next V) bool) *Cell[V] {
	c := &Cell[V]{val: val, differs: differs}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Read invokes fn with the current value under the cell lock. fn must not
// retain references into the value past the call.
func (c *Cell[V]) Read(fn func(V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.val)
	c.cond.Broadcast()
}

// Write invokes fn with exclusive access to the value.
func (c *Cell[V]) Write(fn func(*V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.val)
	c.cond.Broadcast()
}

// Get returns a copy of the current value.
func (c *Cell[V]) Get() V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// Set stores v only when the comparator deems it different from the current
// value. The default comparator treats any inequality as different.
func (c *Cell[V]) Set(v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.differs(c.val, v) {
		return
	}
	c.val = v
	c.cond.Broadcast()
}

// WaitUntil blocks the caller until pred holds on the value. The predicate is
// evaluated under the cell lock.
func (c *Cell[V]) WaitUntil(pred func(V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !pred(c.val) {
		c.cond.Wait()
	}
}

// Map is a concurrent map from keys to guarded cells.
type Map[K comparable, V any] struct {
	mu      sync.RWMutex
	cells   map[K]*Cell[V]
	fresh   func() V
	differs func(old, next V) bool
}

// Option configures a Map.
type Option[V any] func(*config[V])

type config[V any] struct {
	fresh   func() V
	differs func(old, next V) bool
}

// WithFresh sets the initializer for lazily-created cells. Without it, cells
// start at the zero value.
func WithFresh[V any](fn func() V) Option[V] {
	return func(c *config[V]) { c.fresh = fn }
}

// WithDiffers overrides the comparator used by Cell.Set.
func WithDiffers[V any](fn func(old, next V) bool) Option[V] {
	return func(c *config[V]) { c.differs = fn }
}

// New returns an empty map.
func New[K comparable, V any](opts ...Option[V]) *Map[K, V] {
	cfg := config[V]{
		differs: func(old, next V) bool { return !reflect.DeepEqual(old, next) },
	}
	for _, fn := range opts {
		fn(&cfg)
	}
	return &Map[K, V]{
		cells:   make(map[K]*Cell[V]),
		fresh:   cfg.fresh,
		differs: cfg.differs,
	}
}

// Get returns the cell for k, creating it atomically if absent.
func (m *Map[K, V]) Get(k K) *Cell[V] {
	m.mu.RLock()
	c, ok := m.cells[k]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cells[k]; ok {
		return c
	}
	var val V
	if m.fresh != nil {
		val = m.fresh()
	}
	c = newCell(val, m.differs)
	m.cells[k] = c
	return c
}

// Has reports whether a cell exists for k without creating one.
func (m *Map[K, V]) Has(k K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cells[k]
	return ok
}

// Keys returns a snapshot of the keys.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.cells))
	for k := range m.cells {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of live cells.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cells)
}

// Clear drops every cell. Callers still holding a dropped cell keep a working
// but orphaned guard.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells = make(map[K]*Cell[V])
}
