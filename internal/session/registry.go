package session

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// registry holds live per-session objects for one Store. Concurrent first
// accesses to the same key share a single load.
type registry[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	group singleflight.Group
}

func newRegistry[V any]() *registry[V] {
	return &registry[V]{items: make(map[string]V)}
}

func (r *registry[V]) get(key string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[key]
	return v, ok
}

func (r *registry[V]) put(key string, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = v
}

func (r *registry[V]) delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key)
}

func (r *registry[V]) deletePrefix(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.items {
		if strings.HasPrefix(key, prefix) {
			delete(r.items, key)
		}
	}
}

func (r *registry[V]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *registry[V]) getOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := r.get(key); ok {
		return v, nil
	}
	res, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		r.put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
