// Package pipeline is the boundary to the CI/CD orchestrator. The dispatcher
// only needs "start an execution of this pipeline"; everything else (stage
// ordering, queueing of concurrent executions) belongs to the orchestrator.
package pipeline

import "context"

// Starter requests a new execution of a named pipeline and returns the
// orchestrator-assigned execution ID. Starting the same pipeline twice is safe;
// the orchestrator queues or runs executions independently.
type Starter interface {
	StartExecution(ctx context.Context, name string) (string, error)
}
