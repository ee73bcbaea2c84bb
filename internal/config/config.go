package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/chess-movetable/internal/obslog"
	yaml "gopkg.in/yaml.v3"
)

// AppConfig is read from MOVETABLE_* environment variables, optionally
// overlaid by the YAML file named in MOVETABLE_CONFIG.
type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// BaseURL is where the default dataset resource is served; DatasetPath is
	// resolved against it.
	BaseURL     string `yaml:"base_url"`
	DatasetPath string `yaml:"dataset_path"`
	// DatasetFile, when set, is served by this process at DatasetPath.
	DatasetFile  string        `yaml:"dataset_file"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxImportKB  int           `yaml:"max_import_kb"`

	Views        []string `yaml:"views"`
	AnnounceMode string   `yaml:"announce_mode"`
	MessagesDir  string   `yaml:"messages_dir"`

	RedisURL     string `yaml:"redis_url"`
	RedisChannel string `yaml:"redis_channel"`
	WatchFile    string `yaml:"watch_file"`

	Log obslog.Config `yaml:"log"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:   ":8080",
		DatasetPath:  "data.json",
		FetchTimeout: 10 * time.Second,
		MaxImportKB:  1024,
		Views:        []string{"plain-table", "aria-table", "role-grid", "plain-grid"},
		AnnounceMode: "persistent",
		RedisChannel: "movetable:frames",
		Log:          obslog.Config{Level: "info", Format: "legacy", Console: true},
	}
}

// Load applies environment variables, then the optional YAML file, then validates.
func Load() (*AppConfig, error) {
	cfg := Defaults()
	cfg.applyEnv(os.Getenv)

	if path := strings.TrimSpace(os.Getenv("MOVETABLE_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.ApplyYAML(raw); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *AppConfig) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("MOVETABLE_LISTEN_ADDR", &cfg.ListenAddr)
	str("MOVETABLE_BASE_URL", &cfg.BaseURL)
	str("MOVETABLE_DATASET_PATH", &cfg.DatasetPath)
	str("MOVETABLE_DATASET_FILE", &cfg.DatasetFile)
	str("MOVETABLE_ANNOUNCE_MODE", &cfg.AnnounceMode)
	str("MOVETABLE_MESSAGES_DIR", &cfg.MessagesDir)
	str("MOVETABLE_REDIS_URL", &cfg.RedisURL)
	str("MOVETABLE_REDIS_CHANNEL", &cfg.RedisChannel)
	str("MOVETABLE_WATCH_FILE", &cfg.WatchFile)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_FILE", &cfg.Log.File)

	if v := strings.TrimSpace(getenv("MOVETABLE_VIEWS")); v != "" {
		cfg.Views = splitList(v)
	}
	if v := strings.TrimSpace(getenv("MOVETABLE_FETCH_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.FetchTimeout = d
		}
	}
	if v := strings.TrimSpace(getenv("MOVETABLE_MAX_IMPORT_KB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxImportKB = n
		}
	}
	if v := strings.TrimSpace(getenv("LOG_TO_CONSOLE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Console = b
		}
	}
	if v := strings.TrimSpace(getenv("LOG_CALLER")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Caller = b
		}
	}
}

// ApplyYAML overlays keys present in raw.
func (cfg *AppConfig) ApplyYAML(raw []byte) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// ResolvedBaseURL is BaseURL, or this process's own address when unset.
func (cfg *AppConfig) ResolvedBaseURL() string {
	if b := strings.TrimSpace(cfg.BaseURL); b != "" {
		return b
	}
	addr := strings.TrimSpace(cfg.ListenAddr)
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

// Validate rejects configurations the server cannot start with.
func (cfg *AppConfig) Validate() error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return errors.New("listen_addr is required")
	}
	if strings.TrimSpace(cfg.DatasetPath) == "" {
		return errors.New("dataset_path is required")
	}
	if len(cfg.Views) == 0 {
		return errors.New("at least one view is required")
	}
	if cfg.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	if cfg.RedisURL != "" && strings.TrimSpace(cfg.RedisChannel) == "" {
		return errors.New("redis_channel is required with redis_url")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
