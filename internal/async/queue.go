package async

import (
	"context"
	"time"
)

// Job is one inbox file waiting for extraction.
type Job struct {
	Path        string
	Force       bool // reprocess even when a sidecar already exists
	SubmittedAt time.Time
}

// Handler processes one job. Returned errors are logged, never retried.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
