package memory

import (
	"context"
	"sync"
	"time"

	"github.com/RohanKhanal14/lambda-monorepo/internal/storage"
)

// Store is an in-memory implementation of DeliveryStore. Used in tests and
// when no durable journal is configured.
type Store struct {
	mu         sync.RWMutex
	deliveries []*storage.Delivery
}

var _ storage.DeliveryStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) RecordDelivery(ctx context.Context, d *storage.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	cp := *d
	s.deliveries = append(s.deliveries, &cp)
	return nil
}

func (s *Store) ListDeliveries(ctx context.Context, limit int) ([]*storage.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	// Newest first.
	var out []*storage.Delivery
	for i := len(s.deliveries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.deliveries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
