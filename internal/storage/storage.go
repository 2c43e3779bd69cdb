// Package storage defines the delivery journal: a record of every webhook
// delivery the dispatcher processed and what it decided. Dispatch never reads
// the journal, and a write failure never fails a delivery.
package storage

import (
	"context"
	"time"
)

// Delivery is one processed webhook delivery.
type Delivery struct {
	ID           string          `json:"id"`
	Event        string          `json:"event"`
	Repo         string          `json:"repo"`
	Ref          string          `json:"ref"`
	Before       string          `json:"before"`
	After        string          `json:"after"`
	ChangedFiles int             `json:"changed_files"`
	Pipelines    []string        `json:"pipelines"`
	Results      []TriggerResult `json:"results"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TriggerResult is the outcome of one start-execution call.
type TriggerResult struct {
	Pipeline    string `json:"pipeline"`
	ExecutionID string `json:"execution_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DeliveryStore persists and lists delivery records.
type DeliveryStore interface {
	RecordDelivery(ctx context.Context, d *Delivery) error
	// ListDeliveries returns up to limit records, newest first.
	ListDeliveries(ctx context.Context, limit int) ([]*Delivery, error)
	Close() error
}
