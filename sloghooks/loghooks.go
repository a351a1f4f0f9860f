// Package sloghooks logs pagecache.Hooks events through log/slog, with
// sampling for the high-volume ones and redaction of storage keys.
package sloghooks

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/pagecache"
	"github.com/unkn0wn-root/pagecache/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	PageStoredEvery uint64
	SelfHealEvery   uint64
	// Optional key redactor for entity storage keys. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	pageCtr atomic.Uint64
	healCtr atomic.Uint64
}

var _ pagecache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.Redact(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) PageStored(index string, page, kept, dropped int) {
	if h.l == nil || !sample(h.opts.PageStoredEvery, &h.pageCtr) {
		return
	}
	h.l.Debug("pagecache.page_stored",
		"index", index,
		"page", page,
		"kept", kept,
		"dropped", dropped)
}

func (h *Hooks) WatermarkAdvanced(index string, from, to any) {
	if h.l == nil {
		return
	}
	h.l.Debug("pagecache.watermark_advanced",
		"index", index,
		"from", fmt.Sprint(from),
		"to", fmt.Sprint(to))
}

func (h *Hooks) OrderingViolation(index string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("pagecache.ordering_violation",
		"index", index,
		"err", err)
}

func (h *Hooks) CollectionCreated(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("pagecache.collection_created", "key", key)
}

func (h *Hooks) RegistryCleared(count int) {
	if h.l == nil {
		return
	}
	h.l.Info("pagecache.registry_cleared", "collections", count)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.healCtr) {
		return
	}
	h.l.Warn("pagecache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("pagecache.provider_set_rejected",
		"key", h.redact(storageKey))
}
