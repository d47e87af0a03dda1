package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"book-processor/internal/domain"
	"book-processor/internal/domain/model"
	"book-processor/internal/usecase"
)

func seedPending(repo *memBookRepo, id, title string) {
	repo.seed(&model.Book{
		ID:          id,
		Title:       title,
		Status:      model.BookStatusPending,
		CreatedAt:   time.Now().Add(-time.Hour),
		LastUpdated: time.Now().Add(-time.Hour),
	})
}

func TestPipelineProcess(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("drains a pending book to completed in one pass", func(t *testing.T) {
		repo := newMemBookRepo()
		seedPending(repo, "job-1", "Book X")
		f, s, r, p := happyStages()
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		if err := uc.Process(ctx, "job-1"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		b := repo.get("job-1")
		if b.Status != model.BookStatusCompleted {
			t.Errorf("expected status completed, got %s", b.Status)
		}
		if b.BookFilePath == "" || b.PodcastFilePath == "" || b.AudiobookDirPath == "" {
			t.Error("expected all stage output paths to be populated")
		}
		if b.DriveFolderID != "folder-1" {
			t.Errorf("expected terminal folder ref, got %q", b.DriveFolderID)
		}
		if b.DriveBookFileID != "file-book" || b.DrivePodcastFileID != "file-podcast" {
			t.Error("expected drive file ids to be recorded")
		}
		if len(b.DriveAudiobookFileIDs) != 2 {
			t.Errorf("expected 2 audiobook part ids, got %d", len(b.DriveAudiobookFileIDs))
		}
		if b.RetryCount != 0 {
			t.Errorf("expected retry count 0, got %d", b.RetryCount)
		}
	})

	t.Run("marks intent status before the stage runs", func(t *testing.T) {
		repo := newMemBookRepo()
		seedPending(repo, "job-1", "Book X")
		f, s, r, p := happyStages()

		var statusAtFetch model.BookStatus
		f.FetchFunc = func(ctx context.Context, title string) (string, error) {
			statusAtFetch = repo.get("job-1").Status
			return "/data/downloads/book.pdf", nil
		}
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		if err := uc.Process(ctx, "job-1"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if statusAtFetch != model.BookStatusFetching {
			t.Errorf("expected status fetching while fetch runs, got %s", statusAtFetch)
		}
	})

	t.Run("stops at the failing stage and records the error", func(t *testing.T) {
		repo := newMemBookRepo()
		seedPending(repo, "job-1", "Book X")
		f, s, r, p := happyStages()
		s.SummarizeFunc = func(ctx context.Context, bookFilePath, title string) (string, error) {
			return "", errors.New("podcast generation failed")
		}
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		err := uc.Process(ctx, "job-1")
		if err == nil {
			t.Fatal("expected an error, but got nil")
		}
		if !errors.Is(err, domain.ErrStageFailed) {
			t.Errorf("expected ErrStageFailed, got %v", err)
		}

		b := repo.get("job-1")
		if b.Status != model.BookStatusFailed {
			t.Errorf("expected status failed, got %s", b.Status)
		}
		if b.BookFilePath == "" {
			t.Error("expected book file path from the succeeded fetch stage")
		}
		if b.PodcastFilePath != "" {
			t.Errorf("expected no podcast path, got %q", b.PodcastFilePath)
		}
		if b.RetryCount != 1 {
			t.Errorf("expected retry count 1, got %d", b.RetryCount)
		}
		if b.ErrorMessage != "podcast generation failed" {
			t.Errorf("unexpected error message: %q", b.ErrorMessage)
		}
	})

	t.Run("treats an empty fetch result as a stage failure", func(t *testing.T) {
		repo := newMemBookRepo()
		seedPending(repo, "job-1", "Book X")
		f, s, r, p := happyStages()
		f.FetchFunc = func(ctx context.Context, title string) (string, error) {
			return "", nil // not found in the catalog
		}
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		err := uc.Process(ctx, "job-1")
		if !errors.Is(err, domain.ErrStageFailed) {
			t.Fatalf("expected ErrStageFailed, got %v", err)
		}
		b := repo.get("job-1")
		if b.Status != model.BookStatusFailed {
			t.Errorf("expected status failed, got %s", b.Status)
		}
		if b.ErrorMessage == "" {
			t.Error("expected an error message on the record")
		}
	})

	t.Run("treats a publish result without folder id as a stage failure", func(t *testing.T) {
		repo := newMemBookRepo()
		repo.seed(&model.Book{
			ID: "job-1", Title: "Book X", Status: model.BookStatusPublishing,
			CreatedAt: time.Now(), LastUpdated: time.Now(),
			BookFilePath: "/data/downloads/book.pdf",
		})
		f, s, r, p := happyStages()
		p.PublishFunc = func(ctx context.Context, book *model.Book) (model.PublishOutput, error) {
			return model.PublishOutput{BookFileID: "file-book"}, nil // partial result
		}
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		err := uc.Process(ctx, "job-1")
		if !errors.Is(err, domain.ErrStageFailed) {
			t.Fatalf("expected ErrStageFailed, got %v", err)
		}
		if got := repo.get("job-1").Status; got != model.BookStatusFailed {
			t.Errorf("expected status failed, got %s", got)
		}
	})

	t.Run("resumes a book from its in-progress status", func(t *testing.T) {
		repo := newMemBookRepo()
		repo.seed(&model.Book{
			ID: "job-1", Title: "Book X", Status: model.BookStatusRendering,
			CreatedAt: time.Now(), LastUpdated: time.Now(),
			BookFilePath:    "/data/downloads/book.pdf",
			PodcastFilePath: "/data/podcasts/book.mp3",
		})
		f, s, r, p := happyStages()
		fetchCalled := false
		f.FetchFunc = func(ctx context.Context, title string) (string, error) {
			fetchCalled = true
			return "", nil
		}
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		if err := uc.Process(ctx, "job-1"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if fetchCalled {
			t.Error("fetch must not re-run for a book already rendering")
		}
		if got := repo.get("job-1").Status; got != model.BookStatusCompleted {
			t.Errorf("expected status completed, got %s", got)
		}
	})

	t.Run("does nothing for terminal books", func(t *testing.T) {
		repo := newMemBookRepo()
		repo.seed(&model.Book{
			ID: "job-1", Title: "Book X", Status: model.BookStatusFailed,
			CreatedAt: time.Now(), LastUpdated: time.Now(), RetryCount: 2,
		})
		f, s, r, p := happyStages()
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		if err := uc.Process(ctx, "job-1"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		b := repo.get("job-1")
		if b.Status != model.BookStatusFailed || b.RetryCount != 2 {
			t.Error("failed book must not be touched by the driver")
		}
	})

	t.Run("propagates store failures", func(t *testing.T) {
		repo := newMemBookRepo()
		seedPending(repo, "job-1", "Book X")
		storeErr := errors.New("connection refused")
		repo.FailOn["UpdateStatus"] = storeErr
		f, s, r, p := happyStages()
		uc := usecase.NewPipelineUseCase(repo, &mockTxManager{}, f, s, r, p, testLogger)

		err := uc.Process(ctx, "job-1")
		if err == nil {
			t.Fatal("expected an error, but got nil")
		}
		if errors.Is(err, domain.ErrStageFailed) {
			t.Error("store failure must not look like a stage failure")
		}
		if !errors.Is(err, storeErr) {
			t.Errorf("expected the store error to be wrapped, got %v", err)
		}
	})
}
