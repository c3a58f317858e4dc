// Package testlog bridges slog output into the test log.
package testlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// New creates a slog text logger that writes each record through t.Log, so
// log lines interleave with test output and only show for failing tests.
func New(t *testing.T) *slog.Logger {
	t.Helper()

	buf := bytes.NewBuffer(nil)

	return slog.New(&handler{
		delegate: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		t:        t,
		buffer:   buf,
	})
}

type handler struct {
	t        *testing.T
	delegate slog.Handler
	buffer   *bytes.Buffer
	mu       sync.Mutex
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.delegate.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.delegate.Handle(ctx, r); err != nil {
		return err
	}

	content := h.buffer.String()
	h.buffer.Reset()

	h.t.Helper()
	h.t.Log(strings.TrimSuffix(content, "\n"))

	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{
		t:        h.t,
		delegate: h.delegate.WithAttrs(attrs),
		buffer:   h.buffer,
	}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{
		t:        h.t,
		delegate: h.delegate.WithGroup(name),
		buffer:   h.buffer,
	}
}
