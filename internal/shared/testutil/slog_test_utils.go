package testutil

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is one captured slog record. Attribute keys inside groups are
// dotted, e.g. "request.method".
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type recordStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// BufferedSlogHandler captures records in memory and echoes them to the test
// log. Handlers derived through WithAttrs or WithGroup share one store.
type BufferedSlogHandler struct {
	store  *recordStore
	attrs  map[string]any
	prefix string
	tb     testing.TB
}

func NewBufferedSlogHandler(tb testing.TB) *BufferedSlogHandler {
	return &BufferedSlogHandler{store: &recordStore{}, attrs: map[string]any{}, tb: tb}
}

// NewTestLogger returns a logger backed by a fresh BufferedSlogHandler.
func NewTestLogger(tb testing.TB) (*slog.Logger, *BufferedSlogHandler) {
	h := NewBufferedSlogHandler(tb)
	return slog.New(h), h
}

func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for k, v := range h.attrs {
		attrs[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, h.prefix, a)
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	h.store.mu.Unlock()

	if h.tb != nil {
		h.tb.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := h.derive()
	for _, a := range attrs {
		addAttr(child.attrs, h.prefix, a)
	}
	return child
}

func (h *BufferedSlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	child := h.derive()
	child.prefix = h.prefix + name + "."
	return child
}

func (h *BufferedSlogHandler) derive() *BufferedSlogHandler {
	attrs := make(map[string]any, len(h.attrs))
	for k, v := range h.attrs {
		attrs[k] = v
	}
	return &BufferedSlogHandler{store: h.store, attrs: attrs, prefix: h.prefix, tb: h.tb}
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range v.Group() {
			addAttr(dst, inner, ga)
		}
		return
	}
	dst[prefix+a.Key] = v.Any()
}

// GetRecords returns a copy of every captured record.
func (h *BufferedSlogHandler) GetRecords() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return slices.Clone(h.store.records)
}

func (h *BufferedSlogHandler) GetRecordsByLevel(level slog.Level) []LogRecord {
	return h.find(func(r LogRecord) bool { return r.Level == level })
}

// ContainsMessage reports whether any record's message contains message.
func (h *BufferedSlogHandler) ContainsMessage(message string) bool {
	return len(h.find(func(r LogRecord) bool { return strings.Contains(r.Message, message) })) > 0
}

// ContainsAttr reports whether any record carries key with exactly value.
func (h *BufferedSlogHandler) ContainsAttr(key string, value any) bool {
	return len(h.find(func(r LogRecord) bool {
		v, ok := r.Attrs[key]
		return ok && v == value
	})) > 0
}

func (h *BufferedSlogHandler) find(match func(LogRecord) bool) []LogRecord {
	var out []LogRecord
	for _, r := range h.GetRecords() {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (h *BufferedSlogHandler) Clear() {
	h.store.mu.Lock()
	h.store.records = nil
	h.store.mu.Unlock()
}

func (h *BufferedSlogHandler) Count() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.records)
}

// AssertLogContains fails tb unless a record at level contains message.
func AssertLogContains(tb testing.TB, h *BufferedSlogHandler, level slog.Level, message string) {
	tb.Helper()
	records := h.GetRecordsByLevel(level)
	if slices.ContainsFunc(records, func(r LogRecord) bool { return strings.Contains(r.Message, message) }) {
		return
	}
	tb.Errorf("no %s record containing %q", level, message)
	for _, r := range records {
		tb.Logf("  - %s", r.Message)
	}
}

// AssertLogAttr fails tb unless some record carries key=want.
func AssertLogAttr(tb testing.TB, h *BufferedSlogHandler, key string, want any) {
	tb.Helper()
	if h.ContainsAttr(key, want) {
		return
	}
	tb.Errorf("no record with %s=%v", key, want)
	for _, r := range h.GetRecords() {
		tb.Logf("  - %s: %v", r.Message, r.Attrs)
	}
}

// AssertNoErrors fails tb for every ERROR record captured.
func AssertNoErrors(tb testing.TB, h *BufferedSlogHandler) {
	tb.Helper()
	for _, r := range h.GetRecordsByLevel(slog.LevelError) {
		tb.Errorf("unexpected error log: %s: %v", r.Message, r.Attrs)
	}
}
