package session

import (
	"sync"
	"weak"

	"github.com/blackbird-av/airplay2/pkg/plist"
)

// StreamKey identifies one entry in the stream registry: a stream id
// together with its type, since TEARDOWN can target either (spec.md §3).
type StreamKey struct {
	ID   uint64
	Type plist.StreamType
}

// Registry is the weak-valued `(stream_id, stream_type) -> handle` map
// spec.md §3 describes: SessionState holds only weak references to each
// channel's Cancellable, so a channel that has already torn itself down
// is never kept alive by the map and is purged lazily the next time the
// map is walked. The strong reference lives with the goroutine running
// that channel's loop.
type Registry struct {
	mu      sync.Mutex
	handles map[StreamKey]weak.Pointer[Cancellable]
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[StreamKey]weak.Pointer[Cancellable])}
}

// Register records a weak reference to c under key.
func (r *Registry) Register(key StreamKey, c *Cancellable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[key] = weak.Make(c)
}

// Lookup resolves a weak handle back to a strong one, reporting false if
// the channel behind it has already been garbage-collected or was never
// registered.
func (r *Registry) Lookup(key StreamKey) (*Cancellable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(key)
}

func (r *Registry) lookupLocked(key StreamKey) (*Cancellable, bool) {
	wp, ok := r.handles[key]
	if !ok {
		return nil, false
	}
	c := wp.Value()
	if c == nil {
		delete(r.handles, key)
		return nil, false
	}
	return c, true
}

// Cascade cancels every live handle currently registered: the teardown
// cascade a TEARDOWN with an empty streams list, or the whole connection
// closing, triggers (spec.md §5).
func (r *Registry) Cascade() {
	r.mu.Lock()
	keys := make([]StreamKey, 0, len(r.handles))
	for k := range r.handles {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	for _, k := range keys {
		if c, ok := r.Lookup(k); ok {
			c.Cancel()
		}
	}
}

// CancelOne cancels and forgets a single key, for a TEARDOWN naming a
// specific stream.
func (r *Registry) CancelOne(key StreamKey) bool {
	r.mu.Lock()
	c, ok := r.lookupLocked(key)
	if ok {
		delete(r.handles, key)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	c.Cancel()
	return true
}

// Purge drops entries whose weak reference has already gone stale,
// matching spec.md §3's "purged lazily on next map iteration" note. It
// returns the number of live entries remaining.
func (r *Registry) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := 0
	for k, wp := range r.handles {
		if wp.Value() == nil {
			delete(r.handles, k)
			continue
		}
		live++
	}
	return live
}

// Forget removes key unconditionally, used once a channel has observed
// its own cancellation and torn itself down.
func (r *Registry) Forget(key StreamKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, key)
}

// Len reports the number of entries currently tracked, live or stale.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
