package adapter

import (
	"context"

	"book-processor/internal/domain/model"
)

// The four stage contracts the driver calls, in pipeline order. Each is an
// external collaborator: implementations live in internal/infra/adapters and
// may block for a long time (renders run for hours). A stage signals failure
// with an error; it never mutates the book record itself.

// BookFetcher retrieves the source file for a title from the catalog and
// returns a local path to it.
type BookFetcher interface {
	Fetch(ctx context.Context, title string) (string, error)
}

// Summarizer derives a short-form podcast summary from the fetched file and
// returns a local path to the generated audio.
type Summarizer interface {
	Summarize(ctx context.Context, bookFilePath, title string) (string, error)
}

// Renderer converts the fetched file into a long-form audiobook and returns
// the directory holding the rendered parts.
type Renderer interface {
	Render(ctx context.Context, bookFilePath, title string) (string, error)
}

// Publisher uploads every artifact on the record to the drive. A result with
// an empty FolderID is a failure even when err is nil and some per-file
// uploads succeeded.
type Publisher interface {
	Publish(ctx context.Context, book *model.Book) (model.PublishOutput, error)
}
