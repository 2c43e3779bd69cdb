// Package dispatch maps inbound push deliveries to pipeline executions.
// It owns the whole request lifecycle after transport decoding: signature
// verification, payload parsing, rule evaluation, and the start-execution
// calls, so the HTTP server and the Lambda entrypoint share one code path.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/RohanKhanal14/lambda-monorepo/internal/github"
	"github.com/RohanKhanal14/lambda-monorepo/internal/pipeline"
	"github.com/RohanKhanal14/lambda-monorepo/internal/storage"
)

// Terminal errors. A delivery failing one of these triggers nothing.
var (
	// ErrInvalidSignature means the delivery failed HMAC verification.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	// ErrInvalidPayload means the body could not be decoded into a push event.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// Delivery is a transport-neutral inbound webhook delivery: the raw body plus
// the headers the dispatcher cares about.
type Delivery struct {
	ID          string
	Event       string
	ContentType string
	Signature   string
	Body        []byte
}

// Outcome classifies what the dispatcher did with a delivery.
type Outcome string

const (
	// OutcomePong is the reply to GitHub's ping event.
	OutcomePong Outcome = "pong"
	// OutcomeIgnored acknowledges a non-push event without dispatching.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDispatched means rules were evaluated; the report carries the
	// decision, which may be empty.
	OutcomeDispatched Outcome = "dispatched"
)

// Result is the per-pipeline outcome of one start-execution call.
type Result struct {
	Pipeline    string `json:"pipeline"`
	ExecutionID string `json:"execution_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Report is the response manifest for an accepted delivery. ChangedFiles is
// capped at sampleLimit entries; ChangedFileCount carries the real total.
type Report struct {
	Outcome          Outcome  `json:"outcome"`
	Event            string   `json:"event,omitempty"`
	Repo             string   `json:"repo,omitempty"`
	Ref              string   `json:"ref,omitempty"`
	Before           string   `json:"before,omitempty"`
	After            string   `json:"after,omitempty"`
	ChangedFileCount int      `json:"changed_files_count"`
	ChangedFiles     []string `json:"changed_files,omitempty"`
	Pipelines        []string `json:"pipelines_triggered"`
	Results          []Result `json:"trigger_results"`
}

// sampleLimit caps the changed-file sample echoed in responses and logs.
const sampleLimit = 50

// Dispatcher verifies, parses, and dispatches deliveries. All dependencies
// are injected at construction; nothing reads the environment at request time.
type Dispatcher struct {
	secret  string
	rules   *RuleSet
	starter pipeline.Starter
	store   storage.DeliveryStore
	logger  *slog.Logger
}

// New builds a dispatcher. store may be nil to disable journaling.
func New(secret string, rules *RuleSet, starter pipeline.Starter, store storage.DeliveryStore, logger *slog.Logger) (*Dispatcher, error) {
	if secret == "" {
		return nil, fmt.Errorf("webhook secret is not configured")
	}
	if rules == nil {
		return nil, fmt.Errorf("rule set is required")
	}
	if starter == nil {
		return nil, fmt.Errorf("pipeline starter is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		secret:  secret,
		rules:   rules,
		starter: starter,
		store:   store,
		logger:  logger,
	}, nil
}

// Dispatch processes one delivery. Authentication and validation failures are
// returned as terminal errors with zero side effects. Per-pipeline start
// failures are isolated: they land in the report, not in the error return.
func (d *Dispatcher) Dispatch(ctx context.Context, del Delivery) (*Report, error) {
	if !github.VerifySignature(d.secret, del.Body, del.Signature) {
		return nil, ErrInvalidSignature
	}

	evt, err := github.ParsePayload(del.ContentType, del.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch del.Event {
	case github.EventPing:
		return &Report{Outcome: OutcomePong, Event: del.Event}, nil
	case github.EventPush:
	default:
		d.logger.Info("ignoring non-push event",
			slog.String("event", del.Event),
			slog.String("delivery", del.ID))
		return &Report{Outcome: OutcomeIgnored, Event: del.Event}, nil
	}

	changed := evt.ChangedFiles()
	decision := d.rules.Decide(changed)

	d.logger.Info("push received",
		slog.String("delivery", del.ID),
		slog.String("repo", evt.Repository.FullName),
		slog.String("ref", evt.Ref),
		slog.Int("changed_files", len(changed)),
		slog.Any("pipelines", decision))

	report := &Report{
		Outcome:          OutcomeDispatched,
		Event:            del.Event,
		Repo:             evt.Repository.FullName,
		Ref:              evt.Ref,
		Before:           evt.Before,
		After:            evt.After,
		ChangedFileCount: len(changed),
		ChangedFiles:     sample(changed),
		Pipelines:        decision,
		Results:          make([]Result, 0, len(decision)),
	}

	for _, name := range decision {
		execID, err := d.starter.StartExecution(ctx, name)
		if err != nil {
			d.logger.Error("failed to start pipeline",
				slog.String("pipeline", name),
				slog.String("error", err.Error()))
			report.Results = append(report.Results, Result{Pipeline: name, Error: err.Error()})
			continue
		}

		d.logger.Info("pipeline started",
			slog.String("pipeline", name),
			slog.String("execution_id", execID))
		report.Results = append(report.Results, Result{Pipeline: name, ExecutionID: execID})
	}

	d.journal(ctx, del, evt, report)

	return report, nil
}

// journal records the delivery best-effort. Failures are logged, never surfaced.
func (d *Dispatcher) journal(ctx context.Context, del Delivery, evt *github.PushEvent, report *Report) {
	if d.store == nil {
		return
	}

	results := make([]storage.TriggerResult, 0, len(report.Results))
	for _, r := range report.Results {
		results = append(results, storage.TriggerResult{
			Pipeline:    r.Pipeline,
			ExecutionID: r.ExecutionID,
			Error:       r.Error,
		})
	}

	// Deliveries normally carry a GitHub delivery ID; mint one if absent so
	// the journal's primary key stays unique.
	id := del.ID
	if id == "" {
		id = uuid.New().String()
	}

	rec := &storage.Delivery{
		ID:           id,
		Event:        del.Event,
		Repo:         evt.Repository.FullName,
		Ref:          evt.Ref,
		Before:       evt.Before,
		After:        evt.After,
		ChangedFiles: report.ChangedFileCount,
		Pipelines:    report.Pipelines,
		Results:      results,
	}

	if err := d.store.RecordDelivery(ctx, rec); err != nil {
		d.logger.Warn("failed to journal delivery",
			slog.String("delivery", del.ID),
			slog.String("error", err.Error()))
	}
}

func sample(files []string) []string {
	if len(files) <= sampleLimit {
		return files
	}
	return files[:sampleLimit]
}
