package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"book-processor/internal/config"
	"book-processor/internal/domain/ports/adapter"
)

var _ adapter.BookFetcher = (*HTTPCatalog)(nil)

// HTTPCatalog fetches source files from a catalog mirror: search the title,
// take the first match with a usable file, download it into the downloads
// directory. A title with no match returns an empty path, not an error; the
// driver records that as a stage failure.
type HTTPCatalog struct {
	baseURL      string
	downloadsDir string
	client       *http.Client
}

func NewHTTPCatalog(cfg config.CatalogConfig, downloadsDir string) *HTTPCatalog {
	return &HTTPCatalog{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		downloadsDir: downloadsDir,
		client:       &http.Client{Timeout: cfg.Timeout},
	}
}

type searchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Extension   string `json:"extension"`
	DownloadURL string `json:"download_url"`
}

func (c *HTTPCatalog) Fetch(ctx context.Context, title string) (string, error) {
	results, err := c.search(ctx, title)
	if err != nil {
		return "", err
	}
	match := pickResult(results)
	if match == nil {
		return "", nil
	}

	if err := os.MkdirAll(c.downloadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create downloads dir: %w", err)
	}
	dest := filepath.Join(c.downloadsDir, sanitize(title)+"."+match.Extension)
	if err := c.download(ctx, match.DownloadURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (c *HTTPCatalog) search(ctx context.Context, title string) ([]searchResult, error) {
	u := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search: status %d", resp.StatusCode)
	}
	var out struct {
		Results []searchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("catalog search decode: %w", err)
	}
	return out.Results, nil
}

// pickResult prefers pdf over epub; anything else is skipped.
func pickResult(results []searchResult) *searchResult {
	for _, ext := range []string{"pdf", "epub"} {
		for i := range results {
			if strings.EqualFold(results[i].Extension, ext) && results[i].DownloadURL != "" {
				return &results[i]
			}
		}
	}
	return nil
}

func (c *HTTPCatalog) download(ctx context.Context, srcURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog download: status %d", resp.StatusCode)
	}

	// Write to a temp name first so a killed process never leaves a
	// plausible-looking partial file behind.
	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("catalog download: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func sanitize(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, title)
	if mapped == "" {
		mapped = fmt.Sprintf("book_%d", time.Now().Unix())
	}
	return mapped
}
