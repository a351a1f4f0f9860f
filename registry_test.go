package pagecache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var dueKey = Key{Feature: "organization", Scope: "subtasks", Qualifier: "due", ID: "o1"}

func collFactory(t *testing.T, key Key, calls *atomic.Int32) func() Pages[task] {
	return func() Pages[task] {
		calls.Add(1)
		return newTestCollection(t, openFor("u1"), func(o *Options[task]) { o.Index = key.String() })
	}
}

func TestRegistryGetOrCreateSingleInstance(t *testing.T) {
	h := &recHooks{}
	r := NewRegistry[task](RegistryOptions{Hooks: h})
	var calls atomic.Int32

	a := r.GetOrCreate(dueKey, collFactory(t, dueKey, &calls))
	b := r.GetOrCreate(dueKey, collFactory(t, dueKey, &calls))

	if a != b {
		t.Fatalf("GetOrCreate returned different instances for one key")
	}
	if calls.Load() != 1 {
		t.Fatalf("factory called %d times, want 1", calls.Load())
	}
	if ev := h.byKind("created"); len(ev) != 1 || ev[0].a != "organization:subtasks:due/o1" {
		t.Fatalf("CollectionCreated events = %+v", ev)
	}
}

func TestRegistryConcurrentCreateCoalesces(t *testing.T) {
	r := NewRegistry[task](RegistryOptions{})
	var calls atomic.Int32
	start := make(chan struct{})

	const n = 32
	got := make([]Pages[task], n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			got[i] = r.GetOrCreate(dueKey, collFactory(t, dueKey, &calls))
		}(i)
	}
	close(start)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("factory called %d times under concurrency, want 1", calls.Load())
	}
	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("caller %d got a different instance", i)
		}
	}
}

func TestRegistryGetNeverCreates(t *testing.T) {
	r := NewRegistry[task](RegistryOptions{})
	if _, ok := r.Get(dueKey); ok {
		t.Fatalf("Get on empty registry should miss")
	}
	if r.Len() != 0 {
		t.Fatalf("Get must not create entries")
	}
}

func TestRegistryKeysAreStructural(t *testing.T) {
	r := NewRegistry[task](RegistryOptions{})
	var calls atomic.Int32

	k1 := Key{Feature: "organization", Scope: "subtasks:due", ID: "o1"}
	k2 := Key{Feature: "organization", Scope: "subtasks", Qualifier: "due", ID: "o1"}
	if k1.String() != k2.String() {
		t.Fatalf("test premise: keys should render alike")
	}

	a := r.GetOrCreate(k1, collFactory(t, k1, &calls))
	b := r.GetOrCreate(k2, collFactory(t, k2, &calls))
	if a == b || calls.Load() != 2 || r.Len() != 2 {
		t.Fatalf("distinct structured keys collided (calls=%d len=%d)", calls.Load(), r.Len())
	}
	if k1.Digest() == k2.Digest() {
		t.Fatalf("digests collided for distinct keys")
	}
}

func TestRegistryClear(t *testing.T) {
	h := &recHooks{}
	r := NewRegistry[task](RegistryOptions{Hooks: h})
	var calls atomic.Int32

	c := r.GetOrCreate(dueKey, collFactory(t, dueKey, &calls))
	c.AddPage(0, []task{{ID: "1", Executor: "u1"}})
	held, _ := c.Get(0)

	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("Clear left %d entries", r.Len())
	}
	if _, ok := r.Get(dueKey); ok {
		t.Fatalf("Get after Clear should miss")
	}
	if ev := h.byKind("cleared"); len(ev) != 1 || ev[0].a != 1 {
		t.Fatalf("RegistryCleared events = %+v", ev)
	}
	// views handed out before Clear remain readable
	if held.Len() != 1 {
		t.Fatalf("page view invalidated by Clear")
	}

	fresh := r.GetOrCreate(dueKey, collFactory(t, dueKey, &calls))
	if fresh == c || calls.Load() != 2 {
		t.Fatalf("expected a new instance after Clear")
	}
	if _, ok := fresh.Get(0); ok {
		t.Fatalf("new instance must start empty")
	}
}

func TestRegistryKeysSorted(t *testing.T) {
	r := NewRegistry[task](RegistryOptions{})
	var calls atomic.Int32
	for _, id := range []string{"o3", "o1", "o2"} {
		k := Key{Feature: "organization", Scope: "subtasks", ID: id}
		r.GetOrCreate(k, collFactory(t, k, &calls))
	}
	keys := r.Keys()
	if len(keys) != 3 || keys[0].ID != "o1" || keys[1].ID != "o2" || keys[2].ID != "o3" {
		t.Fatalf("Keys() = %v", keys)
	}
}

func TestGetOrCreateAsAndLookupAs(t *testing.T) {
	r := NewRegistry[task](RegistryOptions{})
	created := Key{Feature: "organization", Scope: "subtasks", Qualifier: "created", ID: "o1"}

	mc, err := GetOrCreateAs(r, created, func() *MaxIDCollection[task, string] {
		return newTestMaxID(t, openFor("u1"), nil)
	})
	if err != nil {
		t.Fatalf("GetOrCreateAs: %v", err)
	}
	if _, err := mc.MaxAddPage(0, []task{{ID: "7"}}); err != nil {
		t.Fatalf("MaxAddPage: %v", err)
	}

	again, ok, err := LookupAs[task, *MaxIDCollection[task, string]](r, created)
	if err != nil || !ok || again != mc {
		t.Fatalf("LookupAs: ok=%v err=%v same=%v", ok, err, again == mc)
	}
	if id, _ := again.MaxID(); id != "7" {
		t.Fatalf("MaxID through lookup = %q", id)
	}

	_, err = GetOrCreateAs(r, created, func() *Collection[task] {
		t.Fatalf("factory must not run for an existing key")
		return nil
	})
	var km *KindMismatchError
	if !errors.As(err, &km) || km.Key != created {
		t.Fatalf("expected KindMismatchError, got %v", err)
	}

	if _, ok, err := LookupAs[task, *Collection[task]](r, dueKey); ok || err != nil {
		t.Fatalf("LookupAs on missing key: ok=%v err=%v", ok, err)
	}
}

func TestRegistryNilFactoryPanics(t *testing.T) {
	r := NewRegistry[task](RegistryOptions{})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for nil collection")
		}
	}()
	r.GetOrCreate(dueKey, func() Pages[task] { return nil })
}

func TestRegistryFactoryMayCreateOtherKeys(t *testing.T) {
	r := NewRegistry[task](RegistryOptions{})
	doneKey := Key{Feature: "organization", Scope: "subtasks", Qualifier: "done", ID: "o1"}
	var calls atomic.Int32

	finished := make(chan Pages[task], 1)
	go func() {
		finished <- r.GetOrCreate(dueKey, func() Pages[task] {
			r.GetOrCreate(doneKey, collFactory(t, doneKey, &calls))
			return collFactory(t, dueKey, &calls)()
		})
	}()

	select {
	case c := <-finished:
		if c.Index() != dueKey.String() {
			t.Fatalf("outer collection index = %q", c.Index())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("nested GetOrCreate for a different key did not return")
	}
	if _, ok := r.Get(doneKey); !ok || r.Len() != 2 || calls.Load() != 2 {
		t.Fatalf("nested create: done present=%v len=%d calls=%d", ok, r.Len(), calls.Load())
	}
}
