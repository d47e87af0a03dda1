package adapter

import (
	"context"
	"time"
)

// WorkItem is one entry from the upstream reading list.
type WorkItem struct {
	ID      string
	Title   string
	Created time.Time
}

// TaskSource lists new work items from the upstream task list. Items created
// before the cutoff or already completed upstream are filtered out by the
// implementation. A transient source failure surfaces as an error; the caller
// treats it as zero new items for the run.
type TaskSource interface {
	ListNewWork(ctx context.Context, cutoff time.Time) ([]WorkItem, error)
}
