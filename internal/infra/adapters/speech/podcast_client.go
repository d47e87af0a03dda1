package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"book-processor/internal/config"
	"book-processor/internal/domain/ports/adapter"
)

var _ adapter.Summarizer = (*PodcastClient)(nil)

// PodcastClient asks the local summary service to turn a fetched book into a
// short podcast episode. The call blocks until the episode is rendered; the
// service writes the file itself and replies with its path.
type PodcastClient struct {
	baseURL     string
	podcastsDir string
	client      *http.Client
}

func NewPodcastClient(cfg config.SpeechConfig, podcastsDir string) *PodcastClient {
	return &PodcastClient{
		baseURL:     strings.TrimRight(cfg.PodcastURL, "/"),
		podcastsDir: podcastsDir,
		client:      &http.Client{Timeout: cfg.PodcastTimeout},
	}
}

func (p *PodcastClient) Summarize(ctx context.Context, bookFilePath, title string) (string, error) {
	payload := map[string]any{
		"file_path":  bookFilePath,
		"title":      title,
		"output_dir": p.podcastsDir,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("podcast generate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("podcast generate: status %d", resp.StatusCode)
	}

	var out struct {
		PodcastPath string `json:"podcast_path"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("podcast generate decode: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("podcast generate: %s", out.Error)
	}
	return out.PodcastPath, nil
}
