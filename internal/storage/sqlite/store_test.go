package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/RohanKhanal14/lambda-monorepo/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "deliveries.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := &storage.Delivery{
		ID:           "d-1",
		Event:        "push",
		Repo:         "acme/monorepo",
		Ref:          "refs/heads/main",
		Before:       "aaa",
		After:        "bbb",
		ChangedFiles: 2,
		Pipelines:    []string{"lambda1-pipeline", "lambda2-pipeline"},
		Results: []storage.TriggerResult{
			{Pipeline: "lambda1-pipeline", ExecutionID: "exec-1"},
			{Pipeline: "lambda2-pipeline", Error: "throttled"},
		},
	}

	if err := s.RecordDelivery(ctx, d); err != nil {
		t.Fatalf("RecordDelivery() error = %v", err)
	}

	got, err := s.ListDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("ListDeliveries() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	rec := got[0]
	if rec.ID != "d-1" || rec.Repo != "acme/monorepo" || rec.ChangedFiles != 2 {
		t.Errorf("record = %+v", rec)
	}
	if !reflect.DeepEqual(rec.Pipelines, d.Pipelines) {
		t.Errorf("Pipelines = %v, want %v", rec.Pipelines, d.Pipelines)
	}
	if !reflect.DeepEqual(rec.Results, d.Results) {
		t.Errorf("Results = %v, want %v", rec.Results, d.Results)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on insert")
	}
}

func TestList_NewestFirstAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		d := &storage.Delivery{
			ID:        string(rune('a' + i)),
			Event:     "push",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.RecordDelivery(ctx, d); err != nil {
			t.Fatalf("RecordDelivery() error = %v", err)
		}
	}

	got, err := s.ListDeliveries(ctx, 3)
	if err != nil {
		t.Fatalf("ListDeliveries() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "e" || got[1].ID != "d" || got[2].ID != "c" {
		t.Errorf("order = [%s %s %s], want [e d c]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestRecord_DuplicateIDFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := &storage.Delivery{ID: "dup", Event: "push"}
	if err := s.RecordDelivery(ctx, d); err != nil {
		t.Fatalf("RecordDelivery() error = %v", err)
	}
	if err := s.RecordDelivery(ctx, &storage.Delivery{ID: "dup", Event: "push"}); err == nil {
		t.Error("expected error on duplicate delivery ID")
	}
}
