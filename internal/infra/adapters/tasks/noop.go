package tasks

import (
	"context"
	"time"

	"book-processor/internal/domain/ports/adapter"
)

var _ adapter.TaskSource = (*NoopTaskSource)(nil)

// NoopTaskSource returns a fixed set of items for dev mode.
type NoopTaskSource struct {
	Items []adapter.WorkItem
}

func NewNoopTaskSource(items ...adapter.WorkItem) *NoopTaskSource {
	return &NoopTaskSource{Items: items}
}

func (s *NoopTaskSource) ListNewWork(ctx context.Context, cutoff time.Time) ([]adapter.WorkItem, error) {
	out := make([]adapter.WorkItem, 0, len(s.Items))
	for _, it := range s.Items {
		if !it.Created.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out, nil
}
