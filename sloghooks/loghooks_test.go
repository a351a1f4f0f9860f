package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestPageStoredSampling(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{PageStoredEvery: 3})

	for i := 0; i < 9; i++ {
		h.PageStored("organization:subtasks/o1", i, 1, 0)
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "pagecache.page_stored"))
}

func TestSelfHealRedactsKeys(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})

	h.SelfHeal("entity:subtask:5a1b2c3d4e5f60718293a4b5", "corrupt")
	out := buf.String()
	assert.Contains(t, out, "pagecache.self_heal")
	assert.NotContains(t, out, "5a1b2c3d4e5f60718293a4b5")

	buf.Reset()
	h = New(l, Options{Redact: func(string) string { return "REDACTED" }})
	h.ProviderSetRejected("entity:subtask:x")
	assert.Contains(t, buf.String(), "key=REDACTED")
}

func TestOtherEvents(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})

	h.WatermarkAdvanced("organization:subtasks:created/o1", nil, "5")
	h.OrderingViolation("organization:subtasks:created/o1", errors.New("bad id"))
	h.CollectionCreated("task:subtasks/t1")
	h.RegistryCleared(4)

	out := buf.String()
	for _, want := range []string{
		"pagecache.watermark_advanced", "to=5",
		"pagecache.ordering_violation", `err="bad id"`,
		"pagecache.collection_created",
		"pagecache.registry_cleared", "collections=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.PageStored("i", 0, 0, 0)
	h.RegistryCleared(1)
	h.SelfHeal("k", "corrupt")
}
