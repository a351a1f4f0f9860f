// Package store holds the latest known canonical record per identity for one
// entity kind. Collections keep their own page snapshots; the store is what a
// feature model consults for single-entity reads (GetOne) and what it upserts
// every normalized batch into.
//
// Records are framed with a revision taken from a store-wide clock and kept
// per id in-process. Upsert and Delete assign a new one; a read whose frame
// carries any other revision is stale, deleted and reported as a miss. Writes
// and self-heal deletes for one id are serialized, so a heal never removes a
// frame written after the read that triggered it.
//
// Revisions of ids not written for RevisionRetention are forgotten by a
// background sweep. Their frames then read as stale, so set the retention
// above TTL when one is used.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/unkn0wn-root/pagecache"
	"github.com/unkn0wn-root/pagecache/codec"
	"github.com/unkn0wn-root/pagecache/internal/util"
	"github.com/unkn0wn-root/pagecache/internal/wire"
	pr "github.com/unkn0wn-root/pagecache/provider"
)

type CostFunc func(id string, frame []byte) int64

// Options configure a Store. Namespace, Provider, Codec and IDOf are required.
type Options[R any] struct {
	// Required
	Namespace string // entity kind, e.g. "subtask"; isolates keys in a shared provider
	Provider  pr.Provider
	Codec     codec.Codec[R]
	IDOf      func(R) string

	Logger      pagecache.Logger // if nil, NopLogger is used
	Hooks       pagecache.Hooks  // if nil, NopHooks is used
	TTL         time.Duration    // 0 => no expiry
	ComputeCost CostFunc         // default: frame length

	// Revision bookkeeping. Both must be > 0 to start the sweep.
	CleanupInterval   time.Duration
	RevisionRetention time.Duration
}

type revEntry struct {
	rev       uint64
	updatedAt time.Time
}

const lockStripes = 64

type Store[R any] struct {
	ns       string
	provider pr.Provider
	codec    codec.Codec[R]
	idOf     func(R) string
	log      pagecache.Logger
	hooks    pagecache.Hooks
	ttl      time.Duration
	cost     CostFunc

	locks [lockStripes]sync.Mutex // per-key write/heal serialization

	revMu sync.Mutex
	clock uint64
	revs  map[string]revEntry // storage key -> revision; missing => 0 (never matches a frame)

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New[R any](opts Options[R]) (*Store[R], error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("store: namespace is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("store: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("store: codec is required")
	}
	if opts.IDOf == nil {
		return nil, fmt.Errorf("store: id extractor is required")
	}
	s := &Store[R]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		idOf:     opts.IDOf,
		log:      opts.Logger,
		hooks:    opts.Hooks,
		ttl:      opts.TTL,
		cost:     opts.ComputeCost,
		revs:     make(map[string]revEntry),
	}
	if s.log == nil {
		s.log = pagecache.NopLogger{}
	}
	if s.hooks == nil {
		s.hooks = pagecache.NopHooks{}
	}
	if s.cost == nil {
		s.cost = func(_ string, frame []byte) int64 { return int64(len(frame)) }
	}
	if opts.CleanupInterval > 0 && opts.RevisionRetention > 0 {
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.sweepLoop(opts.CleanupInterval, opts.RevisionRetention)
	}
	return s, nil
}

// Upsert replaces the stored record for r's id.
func (s *Store[R]) Upsert(ctx context.Context, r R) error {
	id := s.idOf(r)
	if id == "" {
		return fmt.Errorf("store %s: upsert: empty id", s.ns)
	}
	payload, err := s.codec.Encode(r)
	if err != nil {
		return fmt.Errorf("store %s: encode %q: %w", s.ns, id, err)
	}
	k := s.key(id)

	mu := s.lockFor(k)
	mu.Lock()
	defer mu.Unlock()

	frame, err := wire.EncodeRecord(s.bump(k), payload)
	if err != nil {
		return fmt.Errorf("store %s: frame %q: %w", s.ns, id, err)
	}
	ok, err := s.provider.Set(ctx, k, frame, s.cost(id, frame), s.ttl)
	if err != nil {
		return fmt.Errorf("store %s: set %q: %w", s.ns, id, err)
	}
	if !ok {
		s.hooks.ProviderSetRejected(k)
		s.log.Debug("upsert rejected by provider (pressure)", pagecache.Fields{"ns": s.ns, "id": id})
	}
	return nil
}

// UpsertMany upserts rs in order and stops at the first failure.
func (s *Store[R]) UpsertMany(ctx context.Context, rs []R) error {
	for _, r := range rs {
		if err := s.Upsert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the latest record for id. Corrupt or stale entries are deleted
// and reported as a miss.
func (s *Store[R]) Get(ctx context.Context, id string) (R, bool, error) {
	var zero R
	k := s.key(id)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil {
		return zero, false, fmt.Errorf("store %s: get %q: %w", s.ns, id, err)
	}
	if !ok {
		return zero, false, nil
	}
	if v, reason := s.decode(k, raw); reason == "" {
		return v, true, nil
	}
	return s.reload(ctx, id, k)
}

// GetMany looks up ids. Found records are keyed by id; missing lists the rest
// in request order.
func (s *Store[R]) GetMany(ctx context.Context, ids []string) (map[string]R, []string, error) {
	out := make(map[string]R, len(ids))
	var missing []string
	for _, id := range ids {
		if _, dup := out[id]; dup {
			continue
		}
		v, ok, err := s.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out[id] = v
		} else {
			missing = append(missing, id)
		}
	}
	return out, missing, nil
}

// Delete forgets id. A failed provider delete is logged rather than returned:
// the new revision alone makes the surviving frame stale.
func (s *Store[R]) Delete(ctx context.Context, id string) error {
	k := s.key(id)

	mu := s.lockFor(k)
	mu.Lock()
	defer mu.Unlock()

	rev := s.bump(k)
	if err := s.provider.Del(ctx, k); err != nil {
		s.log.Warn("delete: provider delete failed; entry is stale by revision", pagecache.Fields{"ns": s.ns, "id": id, "rev": rev, "err": err})
		return nil
	}
	s.forget(k)
	return nil
}

// Close stops the revision sweep and closes the provider.
func (s *Store[R]) Close(ctx context.Context) error {
	if s.stopCh != nil {
		close(s.stopCh)
		s.wg.Wait()
		s.stopCh = nil
	}
	return s.provider.Close(ctx)
}

func (s *Store[R]) key(id string) string {
	return util.StorageKey("entity", s.ns, id)
}

func (s *Store[R]) lockFor(k string) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(k)%lockStripes]
}

// decode validates a frame against the current revision. A non-empty reason
// names why the frame cannot be served.
func (s *Store[R]) decode(k string, raw []byte) (R, string) {
	var zero R
	rev, payload, err := wire.DecodeRecord(raw)
	if err != nil {
		return zero, "corrupt"
	}
	if rev != s.revision(k) {
		return zero, "stale_revision"
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		return zero, "value_decode"
	}
	return v, ""
}

// reload re-reads k under its write lock and deletes it only if the frame is
// still unservable. An Upsert that landed after the first read wins.
func (s *Store[R]) reload(ctx context.Context, id, k string) (R, bool, error) {
	var zero R
	mu := s.lockFor(k)
	mu.Lock()
	defer mu.Unlock()

	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil {
		return zero, false, fmt.Errorf("store %s: get %q: %w", s.ns, id, err)
	}
	if !ok {
		return zero, false, nil
	}
	v, reason := s.decode(k, raw)
	if reason == "" {
		return v, true, nil
	}
	_ = s.provider.Del(ctx, k)
	s.hooks.SelfHeal(k, reason)
	s.log.Warn("entity self-healed", pagecache.Fields{"ns": s.ns, "key": util.Redact(k), "reason": reason})
	return zero, false, nil
}

func (s *Store[R]) revision(k string) uint64 {
	s.revMu.Lock()
	defer s.revMu.Unlock()
	return s.revs[k].rev
}

// bump assigns k a revision no frame has carried before.
func (s *Store[R]) bump(k string) uint64 {
	now := time.Now()
	s.revMu.Lock()
	defer s.revMu.Unlock()
	s.clock++
	s.revs[k] = revEntry{rev: s.clock, updatedAt: now}
	return s.clock
}

func (s *Store[R]) forget(k string) {
	s.revMu.Lock()
	delete(s.revs, k)
	s.revMu.Unlock()
}

// Sweep forgets revisions not bumped within retention.
func (s *Store[R]) Sweep(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.revMu.Lock()
	n := 0
	for k, e := range s.revs {
		if e.updatedAt.Before(cutoff) {
			delete(s.revs, k)
			n++
		}
	}
	s.revMu.Unlock()

	if n > 0 {
		s.log.Debug("revisions swept", pagecache.Fields{"ns": s.ns, "forgotten": n})
	}
}

func (s *Store[R]) sweepLoop(every, retention time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Sweep(retention)
		case <-s.stopCh:
			return
		}
	}
}
