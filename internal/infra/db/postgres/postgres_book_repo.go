package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"book-processor/internal/domain"
	"book-processor/internal/domain/model"
	"book-processor/internal/domain/ports/repository"
)

var _ repository.BookRepository = (*bookRepo)(nil)

// bookRepo is the Postgres state store for book jobs. Every method is a single
// statement (or one explicit transaction), so a crash between stages can never
// leave a half-written record: readers see the book either before or after a
// transition, nothing in between.
type bookRepo struct {
	pool *pgxpool.Pool
}

func NewBookRepo(pool *pgxpool.Pool) *bookRepo {
	return &bookRepo{pool: pool}
}

const bookColumns = `
id, title, status, created_at,
book_file_path, podcast_file_path, audiobook_dir_path,
drive_folder_id, drive_book_file_id, drive_podcast_file_id, drive_audiobook_file_ids,
error_message, retry_count, last_updated`

func inProgressStatuses() []string {
	out := make([]string, 0, len(model.InProgressStatuses))
	for _, s := range model.InProgressStatuses {
		out = append(out, string(s))
	}
	return out
}

func (r *bookRepo) Create(ctx context.Context, tx repository.Tx, book *model.Book) error {
	if book == nil || book.ID == "" {
		return domain.ErrInvalidArgument
	}
	if book.Status == "" {
		book.Status = model.BookStatusPending
	}
	book.LastUpdated = time.Now()

	// Idempotent intake: a second create for the same task id changes nothing.
	const q = `
INSERT INTO books (id, title, status, created_at, last_updated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, book.ID, book.Title, book.Status, book.CreatedAt, book.LastUpdated)
	return err
}

func (r *bookRepo) Find(ctx context.Context, tx repository.Tx, id string) (*model.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanBook(row)
}

// UpdateStatus merges the typed stage output into the record's named columns
// in the same statement that advances the status. A successful transition
// clears any previous error message.
func (r *bookRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.BookStatus, out model.StageOutput) error {
	if !status.Valid() {
		return domain.ErrInvalidArgument
	}

	var q string
	args := []interface{}{id, string(status)}
	switch v := out.(type) {
	case nil:
		q = `UPDATE books SET status=$2, error_message='', last_updated=now() WHERE id=$1;`
	case model.FetchOutput:
		q = `UPDATE books SET status=$2, book_file_path=$3, error_message='', last_updated=now() WHERE id=$1;`
		args = append(args, v.BookFilePath)
	case model.SummarizeOutput:
		q = `UPDATE books SET status=$2, podcast_file_path=$3, error_message='', last_updated=now() WHERE id=$1;`
		args = append(args, v.PodcastFilePath)
	case model.RenderOutput:
		q = `UPDATE books SET status=$2, audiobook_dir_path=$3, error_message='', last_updated=now() WHERE id=$1;`
		args = append(args, v.AudiobookDirPath)
	case model.PublishOutput:
		q = `
UPDATE books SET status=$2,
  drive_folder_id=$3, drive_book_file_id=$4, drive_podcast_file_id=$5, drive_audiobook_file_ids=$6,
  error_message='', last_updated=now()
WHERE id=$1;`
		ids := v.AudiobookFileIDs
		if ids == nil {
			ids = []string{}
		}
		args = append(args, v.FolderID, v.BookFileID, v.PodcastFileID, ids)
	default:
		return domain.ErrInvalidArgument
	}

	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookRepo) RecordError(ctx context.Context, tx repository.Tx, id, message string) error {
	const q = `
UPDATE books SET status=$2, error_message=$3, retry_count=retry_count+1, last_updated=now()
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(model.BookStatusFailed), message)
	if err != nil {
		return fmt.Errorf("record error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id, driveFolderID string) error {
	const q = `
UPDATE books SET status=$2, drive_folder_id=$3, error_message='', last_updated=now()
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(model.BookStatusCompleted), driveFolderID)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindPending orders by created_at so the oldest queued title runs first.
func (r *bookRepo) FindPending(ctx context.Context, tx repository.Tx) ([]*model.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE status=$1 ORDER BY created_at;`
	return r.queryBooks(ctx, tx, q, string(model.BookStatusPending))
}

// FindResumable orders by last_updated so the book untouched the longest is
// picked up first.
func (r *bookRepo) FindResumable(ctx context.Context, tx repository.Tx) ([]*model.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE status = ANY($1) ORDER BY last_updated;`
	return r.queryBooks(ctx, tx, q, inProgressStatuses())
}

func (r *bookRepo) FindStalled(ctx context.Context, tx repository.Tx, before time.Time) ([]*model.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE status = ANY($1) AND last_updated < $2 ORDER BY last_updated;`
	return r.queryBooks(ctx, tx, q, inProgressStatuses(), before)
}

func (r *bookRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at;`
	return r.queryBooks(ctx, tx, q)
}

func (r *bookRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.BookStatus]int, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM books GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.BookStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.BookStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *bookRepo) queryBooks(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Book, error) {
	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	var statusStr string
	err := row.Scan(
		&b.ID, &b.Title, &statusStr, &b.CreatedAt,
		&b.BookFilePath, &b.PodcastFilePath, &b.AudiobookDirPath,
		&b.DriveFolderID, &b.DriveBookFileID, &b.DrivePodcastFileID, &b.DriveAudiobookFileIDs,
		&b.ErrorMessage, &b.RetryCount, &b.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	b.Status = model.BookStatus(statusStr)
	return &b, nil
}
