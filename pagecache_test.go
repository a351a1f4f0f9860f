package pagecache

import (
	"sync"
	"testing"
)

type task struct {
	ID       string
	Executor string
	Due      bool
	Done     bool
}

// openFor mirrors the "my subtasks" view: no due date, assigned to user, not done.
func openFor(user string) Filter[task] {
	return Named("open:"+user, func(t task) bool {
		return !t.Due && t.Executor == user && !t.Done
	})
}

func newTestCollection(t *testing.T, f Filter[task], optsOpt func(*Options[task])) *Collection[task] {
	t.Helper()
	opts := Options[task]{
		Name:   "Task",
		Filter: f,
		Index:  "organization:subtasks/o1",
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	c, err := New[task](opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func ids(p Page[task]) []string {
	out := make([]string, 0, p.Len())
	for r := range p.All() {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type recEvent struct {
	kind string
	a, b any
}

type recHooks struct {
	NopHooks
	mu     sync.Mutex
	events []recEvent
}

func (h *recHooks) add(kind string, a, b any) {
	h.mu.Lock()
	h.events = append(h.events, recEvent{kind: kind, a: a, b: b})
	h.mu.Unlock()
}

func (h *recHooks) PageStored(index string, page, kept, dropped int) {
	h.add("page", kept, dropped)
}
func (h *recHooks) WatermarkAdvanced(index string, from, to any) { h.add("watermark", from, to) }
func (h *recHooks) OrderingViolation(index string, err error)    { h.add("ordering", index, err) }
func (h *recHooks) CollectionCreated(key string)                 { h.add("created", key, nil) }
func (h *recHooks) RegistryCleared(count int)                    { h.add("cleared", count, nil) }

func (h *recHooks) byKind(kind string) []recEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []recEvent
	for _, e := range h.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type recLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recLogger) log(level, msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, level+":"+msg)
	l.mu.Unlock()
}

func (l *recLogger) Debug(msg string, _ Fields) { l.log("debug", msg) }
func (l *recLogger) Info(msg string, _ Fields)  { l.log("info", msg) }
func (l *recLogger) Warn(msg string, _ Fields)  { l.log("warn", msg) }
func (l *recLogger) Error(msg string, _ Fields) { l.log("error", msg) }

func (l *recLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if m == entry {
			return true
		}
	}
	return false
}
