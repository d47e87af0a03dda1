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

var _ adapter.Renderer = (*AudiobookClient)(nil)

// AudiobookClient drives the long-form TTS render. A full book takes hours;
// the HTTP client timeout is sized accordingly and the status staleness sweep
// is the only other safety net.
type AudiobookClient struct {
	baseURL       string
	audiobooksDir string
	voice         string
	speed         float64
	format        string
	client        *http.Client
}

func NewAudiobookClient(cfg config.SpeechConfig, audiobooksDir string) *AudiobookClient {
	return &AudiobookClient{
		baseURL:       strings.TrimRight(cfg.AudiobookURL, "/"),
		audiobooksDir: audiobooksDir,
		voice:         cfg.Voice,
		speed:         cfg.Speed,
		format:        cfg.Format,
		client:        &http.Client{Timeout: cfg.AudiobookTimeout},
	}
}

func (a *AudiobookClient) Render(ctx context.Context, bookFilePath, title string) (string, error) {
	payload := map[string]any{
		"file_path":  bookFilePath,
		"title":      title,
		"output_dir": a.audiobooksDir,
		"voice":      a.voice,
		"speed":      a.speed,
		"format":     a.format,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/convert", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("audiobook convert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audiobook convert: status %d", resp.StatusCode)
	}

	var out struct {
		AudiobookDir string `json:"audiobook_dir"`
		Parts        int    `json:"parts"`
		Error        string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("audiobook convert decode: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("audiobook convert: %s", out.Error)
	}
	return out.AudiobookDir, nil
}
