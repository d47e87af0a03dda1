package model

import (
	"time"

	"book-processor/internal/domain"
)

type BookStatus string

const (
	BookStatusPending     BookStatus = "pending"
	BookStatusFetching    BookStatus = "fetching"
	BookStatusSummarizing BookStatus = "summarizing"
	BookStatusRendering   BookStatus = "rendering"
	BookStatusPublishing  BookStatus = "publishing"
	BookStatusCompleted   BookStatus = "completed"
	BookStatusFailed      BookStatus = "failed"
)

// AllStatuses is the closed enumeration; nothing else is ever persisted.
var AllStatuses = []BookStatus{
	BookStatusPending, BookStatusFetching, BookStatusSummarizing,
	BookStatusRendering, BookStatusPublishing, BookStatusCompleted, BookStatusFailed,
}

// InProgressStatuses are the statuses the recovery sweep cares about: a book
// sitting in one of these was mid-stage when the last run ended.
var InProgressStatuses = []BookStatus{
	BookStatusFetching, BookStatusSummarizing, BookStatusRendering, BookStatusPublishing,
}

func (s BookStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// InProgress reports whether a book in this status can be resumed by the sweep.
// Note that failed is NOT in-progress: failed books stay failed until an
// operator requeues them.
func (s BookStatus) InProgress() bool {
	switch s {
	case BookStatusFetching, BookStatusSummarizing, BookStatusRendering, BookStatusPublishing:
		return true
	}
	return false
}

func (s BookStatus) Terminal() bool {
	return s == BookStatusCompleted || s == BookStatusFailed
}

// Book is the persisted record of one title moving through the pipeline:
// fetch from the catalog, derive a podcast summary, render an audiobook,
// publish everything to the drive. ID and Title come from the upstream task
// and never change; everything else is mutated only through the repository's
// atomic operations.
type Book struct {
	ID        string
	Title     string
	Status    BookStatus
	CreatedAt time.Time

	// Stage outputs, populated as each stage completes.
	BookFilePath     string
	PodcastFilePath  string
	AudiobookDirPath string

	// Publish bookkeeping.
	DriveFolderID         string
	DriveBookFileID       string
	DrivePodcastFileID    string
	DriveAudiobookFileIDs []string

	ErrorMessage string
	RetryCount   int
	LastUpdated  time.Time
}

func NewBook(id, title string, createdAt time.Time) (*Book, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	if title == "" {
		return nil, domain.ErrInvalidArgument
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Book{
		ID:        id,
		Title:     title,
		Status:    BookStatusPending,
		CreatedAt: createdAt,
	}, nil
}

func (b *Book) Resumable() bool { return b.Status.InProgress() }
func (b *Book) Completed() bool { return b.Status == BookStatusCompleted }
func (b *Book) Failed() bool    { return b.Status == BookStatusFailed }
