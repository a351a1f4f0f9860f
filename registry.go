package pagecache

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// RegistryOptions tune a Registry. The zero value is ready to use.
type RegistryOptions struct {
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// Registry maps structured keys to lazily created collections for one
// session or model. Construct one per logical user context and Clear it on
// teardown; it is never shared process-wide.
type Registry[R any] struct {
	log   Logger
	hooks Hooks

	mu sync.RWMutex
	m  map[Key]Pages[R]

	create singleflight.Group
}

func NewRegistry[R any](opts RegistryOptions) *Registry[R] {
	return &Registry[R]{
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
		m:     make(map[Key]Pages[R]),
	}
}

// Get is a plain lookup; it never creates.
func (r *Registry[R]) Get(key Key) (Pages[R], bool) {
	r.mu.RLock()
	c, ok := r.m[key]
	r.mu.RUnlock()
	return c, ok
}

// GetOrCreate returns the collection bound to key, building it with factory on
// first use. Concurrent first calls for one key share a single factory run.
//
// factory may create other keys of the same registry, but must not request the
// key being built, directly or through a cycle (A builds B, B requests A): that
// caller waits on its own build and never returns.
func (r *Registry[R]) GetOrCreate(key Key, factory func() Pages[R]) Pages[R] {
	if c, ok := r.Get(key); ok {
		return c
	}
	v, _, _ := r.create.Do(flightKey(key), func() (any, error) {
		if c, ok := r.Get(key); ok {
			return c, nil
		}
		c := factory()
		if c == nil {
			panic(fmt.Sprintf("pagecache: factory for %s returned nil", key))
		}

		r.mu.Lock()
		if existing, ok := r.m[key]; ok {
			r.mu.Unlock()
			return existing, nil
		}
		r.m[key] = c
		r.mu.Unlock()

		r.hooks.CollectionCreated(key.String())
		r.log.Debug("collection created", Fields{"key": key.String(), "name": c.Name()})
		return c, nil
	})
	return v.(Pages[R])
}

// Clear drops every collection. Pages already handed out stay valid.
func (r *Registry[R]) Clear() {
	r.mu.Lock()
	n := len(r.m)
	r.m = make(map[Key]Pages[R])
	r.mu.Unlock()

	r.hooks.RegistryCleared(n)
	r.log.Debug("registry cleared", Fields{"collections": n})
}

func (r *Registry[R]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

// Keys returns the registered keys ordered by their String form.
func (r *Registry[R]) Keys() []Key {
	r.mu.RLock()
	out := make([]Key, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Key) int { return strings.Compare(flightKey(a), flightKey(b)) })
	return out
}

// GetOrCreateAs is GetOrCreate for callers that need the concrete collection
// type back, e.g. *MaxIDCollection to reach MaxID.
func GetOrCreateAs[R any, C Pages[R]](r *Registry[R], key Key, factory func() C) (C, error) {
	p := r.GetOrCreate(key, func() Pages[R] { return factory() })
	return as[R, C](key, p)
}

// LookupAs is Get narrowed to a concrete collection type. A key bound to a
// different type reports *KindMismatchError.
func LookupAs[R any, C Pages[R]](r *Registry[R], key Key) (C, bool, error) {
	var zero C
	p, ok := r.Get(key)
	if !ok {
		return zero, false, nil
	}
	c, err := as[R, C](key, p)
	if err != nil {
		return zero, false, err
	}
	return c, true, nil
}

func as[R any, C Pages[R]](key Key, p Pages[R]) (C, error) {
	c, ok := p.(C)
	if !ok {
		var zero C
		return zero, &KindMismatchError{Key: key, Have: fmt.Sprintf("%T", p), Want: fmt.Sprintf("%T", zero)}
	}
	return c, nil
}

// flightKey is an unambiguous string form of key.
func flightKey(k Key) string {
	return strconv.Quote(k.Feature) + strconv.Quote(k.Scope) + strconv.Quote(k.Qualifier) + strconv.Quote(k.ID)
}
