package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev    bool
	Daemon bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables the run lock
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

// PipelineConfig carries the run-level knobs: where artifacts land on disk,
// how far back intake looks, and when an in-progress book counts as stalled.
type PipelineConfig struct {
	DataDir             string        `yaml:"data_dir"`
	DownloadsDir        string        `yaml:"downloads_dir"`
	PodcastsDir         string        `yaml:"podcasts_dir"`
	AudiobooksDir       string        `yaml:"audiobooks_dir"`
	TasksCutoff         time.Time     `yaml:"tasks_cutoff"`
	TasksListName       string        `yaml:"tasks_list_name"`
	StalledTimeoutHours int           `yaml:"stalled_timeout_hours"`
	DaemonInterval      time.Duration `yaml:"daemon_interval"`
}

func (p PipelineConfig) StalledTimeout() time.Duration {
	return time.Duration(p.StalledTimeoutHours) * time.Hour
}

type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SpeechConfig struct {
	PodcastURL       string        `yaml:"podcast_url"`
	PodcastTimeout   time.Duration `yaml:"podcast_timeout"`
	AudiobookURL     string        `yaml:"audiobook_url"`
	AudiobookTimeout time.Duration `yaml:"audiobook_timeout"`
	Voice            string        `yaml:"voice"`
	Speed            float64       `yaml:"speed"`
	Format           string        `yaml:"format"`
}

type TasksConfig struct {
	BaseURL string `yaml:"base_url"`
}

type DriveConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RootFolderName string        `yaml:"root_folder_name"`
	Timeout        time.Duration `yaml:"timeout"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Admin    AdminConfig    `yaml:"admin"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Speech   SpeechConfig   `yaml:"speech"`
	Drive    DriveConfig    `yaml:"drive"`
	Tasks    TasksConfig    `yaml:"tasks"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev, daemon bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.Runtime.Daemon = daemon
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8086
	}
	if cfg.Pipeline.DataDir == "" {
		cfg.Pipeline.DataDir = "data"
	}
	if cfg.Pipeline.DownloadsDir == "" {
		cfg.Pipeline.DownloadsDir = filepath.Join(cfg.Pipeline.DataDir, "downloads")
	}
	if cfg.Pipeline.PodcastsDir == "" {
		cfg.Pipeline.PodcastsDir = filepath.Join(cfg.Pipeline.DataDir, "podcasts")
	}
	if cfg.Pipeline.AudiobooksDir == "" {
		cfg.Pipeline.AudiobooksDir = filepath.Join(cfg.Pipeline.DataDir, "audiobooks")
	}
	if cfg.Pipeline.TasksListName == "" {
		cfg.Pipeline.TasksListName = "To read"
	}
	if cfg.Pipeline.StalledTimeoutHours <= 0 {
		cfg.Pipeline.StalledTimeoutHours = 24
	}
	if cfg.Pipeline.DaemonInterval <= 0 {
		cfg.Pipeline.DaemonInterval = time.Hour
	}
	if cfg.Catalog.Timeout <= 0 {
		cfg.Catalog.Timeout = 5 * time.Minute
	}
	if cfg.Speech.PodcastTimeout <= 0 {
		cfg.Speech.PodcastTimeout = 10 * time.Minute
	}
	if cfg.Speech.AudiobookTimeout <= 0 {
		cfg.Speech.AudiobookTimeout = 6 * time.Hour
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = "af_bella"
	}
	if cfg.Speech.Speed <= 0 {
		cfg.Speech.Speed = 1.0
	}
	if cfg.Speech.Format == "" {
		cfg.Speech.Format = ".mp3"
	}
	if cfg.Drive.RootFolderName == "" {
		cfg.Drive.RootFolderName = "Books"
	}
	if cfg.Drive.Timeout <= 0 {
		cfg.Drive.Timeout = 5 * time.Minute
	}
}
