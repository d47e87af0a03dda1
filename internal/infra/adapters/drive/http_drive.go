package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"book-processor/internal/config"
	"book-processor/internal/domain/model"
	"book-processor/internal/domain/ports/adapter"
)

var _ adapter.Publisher = (*HTTPDrive)(nil)

// HTTPDrive publishes a finished book through the drive gateway: one folder
// per title under the configured root, then the source file, the podcast and
// every audiobook part into it. The gateway reads the files from local paths,
// so this adapter only ships references, not bytes.
type HTTPDrive struct {
	baseURL    string
	rootFolder string
	client     *http.Client
}

func NewHTTPDrive(cfg config.DriveConfig) *HTTPDrive {
	return &HTTPDrive{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		rootFolder: cfg.RootFolderName,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (d *HTTPDrive) Publish(ctx context.Context, book *model.Book) (model.PublishOutput, error) {
	var out model.PublishOutput

	folderID, err := d.createFolder(ctx, book.Title)
	if err != nil {
		return out, err
	}
	out.FolderID = folderID

	if book.BookFilePath != "" {
		id, err := d.uploadFile(ctx, folderID, book.BookFilePath)
		if err != nil {
			return out, err
		}
		out.BookFileID = id
	}
	if book.PodcastFilePath != "" {
		id, err := d.uploadFile(ctx, folderID, book.PodcastFilePath)
		if err != nil {
			return out, err
		}
		out.PodcastFileID = id
	}
	if book.AudiobookDirPath != "" {
		ids, err := d.uploadParts(ctx, folderID, book.AudiobookDirPath)
		if err != nil {
			return out, err
		}
		out.AudiobookFileIDs = ids
	}
	return out, nil
}

func (d *HTTPDrive) createFolder(ctx context.Context, name string) (string, error) {
	var out struct {
		FolderID string `json:"folder_id"`
	}
	err := d.post(ctx, "/folders", map[string]any{"name": name, "parent": d.rootFolder}, &out)
	if err != nil {
		return "", fmt.Errorf("drive create folder: %w", err)
	}
	return out.FolderID, nil
}

func (d *HTTPDrive) uploadFile(ctx context.Context, folderID, path string) (string, error) {
	var out struct {
		FileID string `json:"file_id"`
	}
	err := d.post(ctx, "/files", map[string]any{"folder_id": folderID, "file_path": path}, &out)
	if err != nil {
		return "", fmt.Errorf("drive upload %s: %w", filepath.Base(path), err)
	}
	return out.FileID, nil
}

// uploadParts uploads the rendered part files in name order so part numbering
// survives the round trip.
func (d *HTTPDrive) uploadParts(ctx context.Context, folderID, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read audiobook dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, err := d.uploadFile(ctx, folderID, filepath.Join(dir, name))
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *HTTPDrive) post(ctx context.Context, path string, payload map[string]any, out interface{}) error {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
