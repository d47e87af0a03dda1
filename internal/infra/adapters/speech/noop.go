package speech

import (
	"context"
	"path/filepath"
	"strings"

	"book-processor/internal/domain/ports/adapter"
)

var (
	_ adapter.Summarizer = (*NoopSpeech)(nil)
	_ adapter.Renderer   = (*NoopSpeech)(nil)
)

// NoopSpeech fakes both speech stages for dev mode.
type NoopSpeech struct {
	podcastsDir   string
	audiobooksDir string
}

func NewNoopSpeech(podcastsDir, audiobooksDir string) *NoopSpeech {
	return &NoopSpeech{podcastsDir: podcastsDir, audiobooksDir: audiobooksDir}
}

func (n *NoopSpeech) Summarize(ctx context.Context, bookFilePath, title string) (string, error) {
	return filepath.Join(n.podcastsDir, slug(title)+".mp3"), nil
}

func (n *NoopSpeech) Render(ctx context.Context, bookFilePath, title string) (string, error) {
	return filepath.Join(n.audiobooksDir, slug(title)), nil
}

func slug(title string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}
