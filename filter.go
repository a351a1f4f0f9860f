package pagecache

import (
	"fmt"
	"strings"
)

// Filter decides whether a record belongs to a collection. Match must be pure:
// a collection evaluates it once per record, at AddPage time.
type Filter[R any] interface {
	Match(r R) bool
}

// FilterFunc adapts a plain predicate to Filter.
type FilterFunc[R any] func(R) bool

func (f FilterFunc[R]) Match(r R) bool { return f(r) }

type namedFilter[R any] struct {
	name string
	fn   func(R) bool
}

func (f namedFilter[R]) Match(r R) bool { return f.fn(r) }
func (f namedFilter[R]) String() string { return f.name }

// Named wraps fn so that logs and errors can show what the filter is.
func Named[R any](name string, fn func(R) bool) Filter[R] {
	return namedFilter[R]{name: name, fn: fn}
}

type andFilter[R any] []Filter[R]

func (a andFilter[R]) Match(r R) bool {
	for _, f := range a {
		if !f.Match(r) {
			return false
		}
	}
	return true
}

func (a andFilter[R]) String() string {
	parts := make([]string, len(a))
	for i, f := range a {
		parts[i] = describe(f)
	}
	return "and(" + strings.Join(parts, ",") + ")"
}

// And matches when every filter matches. And() with no filters matches everything.
func And[R any](filters ...Filter[R]) Filter[R] {
	return andFilter[R](append([]Filter[R](nil), filters...))
}

type notFilter[R any] struct{ inner Filter[R] }

func (n notFilter[R]) Match(r R) bool { return !n.inner.Match(r) }
func (n notFilter[R]) String() string { return "not(" + describe(n.inner) + ")" }

func Not[R any](f Filter[R]) Filter[R] { return notFilter[R]{inner: f} }

func describe(f any) string {
	if s, ok := f.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", f)
}
