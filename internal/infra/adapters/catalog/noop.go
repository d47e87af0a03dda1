package catalog

import (
	"context"
	"path/filepath"

	"book-processor/internal/domain/ports/adapter"
)

var _ adapter.BookFetcher = (*NoopCatalog)(nil)

// NoopCatalog pretends every title exists. Dev mode only.
type NoopCatalog struct {
	downloadsDir string
}

func NewNoopCatalog(downloadsDir string) *NoopCatalog {
	return &NoopCatalog{downloadsDir: downloadsDir}
}

func (c *NoopCatalog) Fetch(ctx context.Context, title string) (string, error) {
	return filepath.Join(c.downloadsDir, sanitize(title)+".pdf"), nil
}
