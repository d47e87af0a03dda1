package drive

import (
	"context"
	"fmt"

	"book-processor/internal/domain/model"
	"book-processor/internal/domain/ports/adapter"
)

var _ adapter.Publisher = (*NoopDrive)(nil)

// NoopDrive fabricates drive ids for dev mode.
type NoopDrive struct{}

func NewNoopDrive() *NoopDrive { return &NoopDrive{} }

func (d *NoopDrive) Publish(ctx context.Context, book *model.Book) (model.PublishOutput, error) {
	out := model.PublishOutput{
		FolderID: "noop-folder-" + book.ID,
	}
	if book.BookFilePath != "" {
		out.BookFileID = "noop-book-" + book.ID
	}
	if book.PodcastFilePath != "" {
		out.PodcastFileID = "noop-podcast-" + book.ID
	}
	if book.AudiobookDirPath != "" {
		out.AudiobookFileIDs = []string{fmt.Sprintf("noop-part-%s-1", book.ID)}
	}
	return out, nil
}
