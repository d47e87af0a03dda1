package usecase_test

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"book-processor/internal/domain"
	"book-processor/internal/domain/model"
	"book-processor/internal/domain/ports/adapter"
	"book-processor/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

// mockTxManager runs the callback outside any real transaction. Assign
// WithTxFunc for transaction-specific behavior.
type mockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// --- In-memory BookRepository ---

// memBookRepo implements the store semantics in memory: idempotent create,
// error-clearing status updates, monotonic retry counts and the documented
// query orderings. FailOn lets a test inject a store failure for one method.
type memBookRepo struct {
	mu     sync.Mutex
	books  map[string]*model.Book
	FailOn map[string]error
}

func newMemBookRepo() *memBookRepo {
	return &memBookRepo{
		books:  make(map[string]*model.Book),
		FailOn: make(map[string]error),
	}
}

func (r *memBookRepo) fail(method string) error { return r.FailOn[method] }

// seed inserts a book bypassing Create, for arranging arbitrary states.
func (r *memBookRepo) seed(b *model.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.books[b.ID] = &cp
}

func (r *memBookRepo) get(id string) *model.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

func (r *memBookRepo) Create(ctx context.Context, tx repository.Tx, book *model.Book) error {
	if err := r.fail("Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.books[book.ID]; exists {
		return nil
	}
	cp := *book
	cp.LastUpdated = time.Now()
	r.books[book.ID] = &cp
	return nil
}

func (r *memBookRepo) Find(ctx context.Context, tx repository.Tx, id string) (*model.Book, error) {
	if err := r.fail("Find"); err != nil {
		return nil, err
	}
	b := r.get(id)
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (r *memBookRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.BookStatus, out model.StageOutput) error {
	if err := r.fail("UpdateStatus"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	b.ErrorMessage = ""
	b.LastUpdated = time.Now()
	switch v := out.(type) {
	case nil:
	case model.FetchOutput:
		b.BookFilePath = v.BookFilePath
	case model.SummarizeOutput:
		b.PodcastFilePath = v.PodcastFilePath
	case model.RenderOutput:
		b.AudiobookDirPath = v.AudiobookDirPath
	case model.PublishOutput:
		b.DriveFolderID = v.FolderID
		b.DriveBookFileID = v.BookFileID
		b.DrivePodcastFileID = v.PodcastFileID
		b.DriveAudiobookFileIDs = v.AudiobookFileIDs
	}
	return nil
}

func (r *memBookRepo) RecordError(ctx context.Context, tx repository.Tx, id, message string) error {
	if err := r.fail("RecordError"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = model.BookStatusFailed
	b.ErrorMessage = message
	b.RetryCount++
	b.LastUpdated = time.Now()
	return nil
}

func (r *memBookRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id, driveFolderID string) error {
	if err := r.fail("MarkCompleted"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = model.BookStatusCompleted
	b.DriveFolderID = driveFolderID
	b.ErrorMessage = ""
	b.LastUpdated = time.Now()
	return nil
}

func (r *memBookRepo) FindPending(ctx context.Context, tx repository.Tx) ([]*model.Book, error) {
	if err := r.fail("FindPending"); err != nil {
		return nil, err
	}
	books := r.filter(func(b *model.Book) bool { return b.Status == model.BookStatusPending })
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.Before(books[j].CreatedAt) })
	return books, nil
}

func (r *memBookRepo) FindResumable(ctx context.Context, tx repository.Tx) ([]*model.Book, error) {
	if err := r.fail("FindResumable"); err != nil {
		return nil, err
	}
	books := r.filter(func(b *model.Book) bool { return b.Status.InProgress() })
	sort.Slice(books, func(i, j int) bool { return books[i].LastUpdated.Before(books[j].LastUpdated) })
	return books, nil
}

func (r *memBookRepo) FindStalled(ctx context.Context, tx repository.Tx, before time.Time) ([]*model.Book, error) {
	if err := r.fail("FindStalled"); err != nil {
		return nil, err
	}
	books := r.filter(func(b *model.Book) bool {
		return b.Status.InProgress() && b.LastUpdated.Before(before)
	})
	sort.Slice(books, func(i, j int) bool { return books[i].LastUpdated.Before(books[j].LastUpdated) })
	return books, nil
}

func (r *memBookRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Book, error) {
	if err := r.fail("ListAll"); err != nil {
		return nil, err
	}
	books := r.filter(func(*model.Book) bool { return true })
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.Before(books[j].CreatedAt) })
	return books, nil
}

func (r *memBookRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.BookStatus]int, error) {
	if err := r.fail("CountByStatus"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[model.BookStatus]int)
	for _, b := range r.books {
		counts[b.Status]++
	}
	return counts, nil
}

func (r *memBookRepo) filter(keep func(*model.Book) bool) []*model.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Book
	for _, b := range r.books {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

// --- Stage adapter mocks ---

type mockFetcher struct {
	FetchFunc func(ctx context.Context, title string) (string, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, title string) (string, error) {
	return m.FetchFunc(ctx, title)
}

type mockSummarizer struct {
	SummarizeFunc func(ctx context.Context, bookFilePath, title string) (string, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, bookFilePath, title string) (string, error) {
	return m.SummarizeFunc(ctx, bookFilePath, title)
}

type mockRenderer struct {
	RenderFunc func(ctx context.Context, bookFilePath, title string) (string, error)
}

func (m *mockRenderer) Render(ctx context.Context, bookFilePath, title string) (string, error) {
	return m.RenderFunc(ctx, bookFilePath, title)
}

type mockPublisher struct {
	PublishFunc func(ctx context.Context, book *model.Book) (model.PublishOutput, error)
}

func (m *mockPublisher) Publish(ctx context.Context, book *model.Book) (model.PublishOutput, error) {
	return m.PublishFunc(ctx, book)
}

type mockTaskSource struct {
	ListNewWorkFunc func(ctx context.Context, cutoff time.Time) ([]adapter.WorkItem, error)
}

func (m *mockTaskSource) ListNewWork(ctx context.Context, cutoff time.Time) ([]adapter.WorkItem, error) {
	return m.ListNewWorkFunc(ctx, cutoff)
}

// happyStages returns stage mocks that all succeed with canned outputs.
func happyStages() (*mockFetcher, *mockSummarizer, *mockRenderer, *mockPublisher) {
	f := &mockFetcher{FetchFunc: func(ctx context.Context, title string) (string, error) {
		return "/data/downloads/book.pdf", nil
	}}
	s := &mockSummarizer{SummarizeFunc: func(ctx context.Context, bookFilePath, title string) (string, error) {
		return "/data/podcasts/book.mp3", nil
	}}
	r := &mockRenderer{RenderFunc: func(ctx context.Context, bookFilePath, title string) (string, error) {
		return "/data/audiobooks/book", nil
	}}
	p := &mockPublisher{PublishFunc: func(ctx context.Context, book *model.Book) (model.PublishOutput, error) {
		return model.PublishOutput{
			FolderID:         "folder-1",
			BookFileID:       "file-book",
			PodcastFileID:    "file-podcast",
			AudiobookFileIDs: []string{"part-1", "part-2"},
		}, nil
	}}
	return f, s, r, p
}
