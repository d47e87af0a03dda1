package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"book-processor/internal/domain/ports/adapter"
)

var _ adapter.TaskSource = (*HTTPTaskSource)(nil)

// HTTPTaskSource reads the upstream reading list. Only items from the named
// list, created at or after the cutoff and still open upstream, become work
// items.
type HTTPTaskSource struct {
	baseURL  string
	listName string
	client   *http.Client
}

func NewHTTPTaskSource(baseURL, listName string) *HTTPTaskSource {
	return &HTTPTaskSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		listName: listName,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type taskItem struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Status  string    `json:"status"` // needsAction | completed
}

func (s *HTTPTaskSource) ListNewWork(ctx context.Context, cutoff time.Time) ([]adapter.WorkItem, error) {
	u := fmt.Sprintf("%s/tasks?list=%s&updated_after=%s",
		s.baseURL, url.QueryEscape(s.listName), url.QueryEscape(cutoff.Format(time.RFC3339)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list tasks: status %d", resp.StatusCode)
	}

	var out struct {
		Items []taskItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("list tasks decode: %w", err)
	}

	items := make([]adapter.WorkItem, 0, len(out.Items))
	for _, t := range out.Items {
		if t.Status == "completed" {
			continue // already acknowledged upstream
		}
		if t.Created.Before(cutoff) {
			continue
		}
		title := t.Title
		if title == "" {
			title = "Untitled"
		}
		items = append(items, adapter.WorkItem{ID: t.ID, Title: title, Created: t.Created})
	}
	return items, nil
}
