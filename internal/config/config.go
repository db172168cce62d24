// Package config loads runtime settings from defaults, an optional YAML
// file and environment variables, in that order of increasing precedence.
// A .env file in the working directory is honored for development.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/internal/ratelimit"
)

// Config is the full runtime configuration.
type Config struct {
	DataDir       string `yaml:"data_dir"`       // corpus metadata and text
	MediaDir      string `yaml:"media_dir"`      // per-verse clip store
	OutputDir     string `yaml:"output_dir"`     // built MP3/MP4/subtitle files
	BackgroundDir string `yaml:"background_dir"` // video background clips and images
	DBPath        string `yaml:"db_path"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	TextSource   string `yaml:"text_source"`
	DefaultVoice string `yaml:"default_voice"`
	DefaultLang  string `yaml:"default_lang"`

	FetchBaseURL  string `yaml:"fetch_base_url"`
	TafsirBaseURL string `yaml:"tafsir_base_url"`

	RateLimit int `yaml:"rate_limit"`
	// The window is fixed; only the budget within it is tunable.
	RateLimitWindow time.Duration `yaml:"-"`
}

// Default returns the built-in configuration, rooted under dir.
func Default(dir string) Config {
	return Config{
		DataDir:         filepath.Join(dir, "data"),
		MediaDir:        filepath.Join(dir, "media"),
		OutputDir:       filepath.Join(dir, "output"),
		BackgroundDir:   filepath.Join(dir, "backgrounds"),
		DBPath:          filepath.Join(dir, "qbot.db"),
		LogLevel:        "info",
		LogFormat:       "text",
		TextSource:      "hafs",
		DefaultVoice:    DefaultVoice,
		DefaultLang:     "en",
		RateLimit:       ratelimit.DefaultLimit,
		RateLimitWindow: ratelimit.DefaultWindow,
	}
}

// Load assembles the configuration. path may be empty or point to a YAML
// file; a missing file at the default location is not an error.
func Load(path string) (Config, error) {
	root := "."
	if home, err := os.UserHomeDir(); err == nil {
		root = filepath.Join(home, ".qbot")
	}
	cfg := Default(root)

	// Development convenience; absence is normal.
	_ = godotenv.Load()

	explicit := path != ""
	if path == "" {
		path = filepath.Join(root, "config.yaml")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.NewParseWrap("yaml", path, "config decode failed", err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults apply.
	default:
		return Config{}, errors.NewIO("read", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.DataDir, "QBOT_DATA_DIR")
	set(&cfg.MediaDir, "QBOT_MEDIA_DIR")
	set(&cfg.OutputDir, "QBOT_OUTPUT_DIR")
	set(&cfg.BackgroundDir, "QBOT_BACKGROUND_DIR")
	set(&cfg.DBPath, "QBOT_DB_PATH")
	set(&cfg.LogLevel, "QBOT_LOG_LEVEL")
	set(&cfg.LogFormat, "QBOT_LOG_FORMAT")
	set(&cfg.TextSource, "QBOT_TEXT_SOURCE")
	set(&cfg.DefaultVoice, "QBOT_VOICE")
	set(&cfg.DefaultLang, "QBOT_LANG")
	set(&cfg.FetchBaseURL, "QBOT_FETCH_BASE_URL")
	set(&cfg.TafsirBaseURL, "QBOT_TAFSIR_BASE_URL")
	if v := os.Getenv("QBOT_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit = n
		}
	}
}
