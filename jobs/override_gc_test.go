package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeOverrideStore struct {
	removed int64
	err     error
	calls   int
}

func (s *fakeOverrideStore) DeleteExpiredOverrides(ctx context.Context, before time.Time) (int64, error) {
	s.calls++
	return s.removed, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOverrideGCHandler(t *testing.T) {
	store := &fakeOverrideStore{removed: 3}
	handler := NewOverrideGCHandler(store, testLogger())

	task, err := NewOverrideGCTask(time.Now())
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected one sweep, got %d", store.calls)
	}
}

func TestOverrideGCHandlerPropagatesStoreError(t *testing.T) {
	want := errors.New("connection refused")
	store := &fakeOverrideStore{err: want}
	handler := NewOverrideGCHandler(store, testLogger())

	task, err := NewOverrideGCTask(time.Now())
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := handler(context.Background(), task); !errors.Is(err, want) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}
