package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"book-processor/internal/domain/model"
	"book-processor/internal/usecase"
)

func TestSweepResetStalled(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("resets a book stuck past the threshold", func(t *testing.T) {
		repo := newMemBookRepo()
		repo.seed(&model.Book{
			ID: "job-1", Title: "Book X", Status: model.BookStatusRendering,
			CreatedAt:   time.Now().Add(-48 * time.Hour),
			LastUpdated: time.Now().Add(-25 * time.Hour),
		})
		uc := usecase.NewSweepUseCase(repo, 24*time.Hour, testLogger)

		n, err := uc.ResetStalled(ctx)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 reset, got %d", n)
		}

		b := repo.get("job-1")
		if b.Status != model.BookStatusFailed {
			t.Errorf("expected status failed, got %s", b.Status)
		}
		if b.RetryCount != 1 {
			t.Errorf("expected retry count 1, got %d", b.RetryCount)
		}
		if !strings.Contains(b.ErrorMessage, "stalled") {
			t.Errorf("expected a stalled message, got %q", b.ErrorMessage)
		}
	})

	t.Run("leaves fresh in-progress books alone", func(t *testing.T) {
		repo := newMemBookRepo()
		repo.seed(&model.Book{
			ID: "job-1", Title: "Book X", Status: model.BookStatusRendering,
			CreatedAt:   time.Now().Add(-2 * time.Hour),
			LastUpdated: time.Now().Add(-1 * time.Hour),
		})
		uc := usecase.NewSweepUseCase(repo, 24*time.Hour, testLogger)

		n, err := uc.ResetStalled(ctx)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected 0 resets, got %d", n)
		}
		if got := repo.get("job-1").Status; got != model.BookStatusRendering {
			t.Errorf("expected status rendering, got %s", got)
		}
	})

	t.Run("ignores failed and terminal books regardless of age", func(t *testing.T) {
		repo := newMemBookRepo()
		old := time.Now().Add(-100 * time.Hour)
		repo.seed(&model.Book{
			ID: "job-1", Title: "Book X", Status: model.BookStatusFailed,
			CreatedAt: old, LastUpdated: old, RetryCount: 1,
		})
		repo.seed(&model.Book{
			ID: "job-2", Title: "Book Y", Status: model.BookStatusCompleted,
			CreatedAt: old, LastUpdated: old,
		})
		uc := usecase.NewSweepUseCase(repo, 24*time.Hour, testLogger)

		n, err := uc.ResetStalled(ctx)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected 0 resets, got %d", n)
		}
		if got := repo.get("job-1").RetryCount; got != 1 {
			t.Errorf("failed book retry count changed: %d", got)
		}
	})
}
