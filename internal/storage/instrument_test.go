package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/storage/memory"
)

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := storage.NewMetrics(reg)
	s := storage.Instrument(memory.New(), m)
	col := storage.CollectionPath{UID: "u1", Collection: "good_habits"}

	id, err := s.Create(ctx, col, storage.Fields{"name": "Read"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Get(ctx, col.Doc(id)); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := s.Get(ctx, col.Doc("missing")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	count, err := testutil.GatherAndCount(reg, "habitkeeper_store_operations_total")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 label sets (create ok, get ok, get not_found), got %d", count)
	}
	if s.Name() != "memory" {
		t.Errorf("expected wrapped backend name, got %q", s.Name())
	}
}

func TestInstrumentNilMetrics(t *testing.T) {
	p := memory.New()
	if storage.Instrument(p, nil) != storage.Provider(p) {
		t.Error("expected provider to be returned unwrapped")
	}
}

func TestUnwrap(t *testing.T) {
	p := memory.New()
	wrapped := storage.Instrument(p, storage.NewMetrics(nil))
	if _, ok := wrapped.(*memory.Store); ok {
		t.Fatal("expected a decorator")
	}
	if storage.Unwrap(wrapped) != storage.Provider(p) {
		t.Error("expected Unwrap to return the backend")
	}
	if storage.Unwrap(p) != storage.Provider(p) {
		t.Error("expected Unwrap to pass a bare backend through")
	}
}
