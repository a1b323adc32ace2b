package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/pilotdeck/internal/geo"
)

// Viewport is the map area fetched at startup.
type Viewport struct {
	Bounds     geo.Bounds
	Resolution geo.Resolution
}

// Config captures everything pilotdeck needs to reach the autopilot daemon.
type Config struct {
	APIBind        string
	APIPrefix      string
	Splits         int
	PollInterval   time.Duration
	RequestTimeout time.Duration
	MetricsAddr    string
	Viewport       Viewport
}

const (
	defaultConfigPath     = "~/.config/pilotdeck/config.toml"
	defaultAPIBind        = "127.0.0.1:8000"
	defaultAPIPrefix      = "/api"
	defaultSplits         = 1
	defaultPollInterval   = 2 * time.Second
	defaultRequestTimeout = 5 * time.Second
	maxSplits             = 16
)

var defaultViewport = Viewport{
	Bounds:     geo.Bounds{MinLat: 44.5, MaxLat: 45.5, MinLng: 4.5, MaxLng: 5.5},
	Resolution: geo.Resolution{Vert: 600, Horiz: 800},
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:        defaultAPIBind,
		APIPrefix:      defaultAPIPrefix,
		Splits:         defaultSplits,
		PollInterval:   defaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		Viewport:       defaultViewport,
	}
}

type rawViewport struct {
	MinLat   *float64 `toml:"min_lat"`
	MaxLat   *float64 `toml:"max_lat"`
	MinLng   *float64 `toml:"min_lng"`
	MaxLng   *float64 `toml:"max_lng"`
	VertDef  *float64 `toml:"vert_def"`
	HorizDef *float64 `toml:"horiz_def"`
}

type rawConfig struct {
	APIBind        string      `toml:"api_bind"`
	APIPrefix      string      `toml:"api_prefix"`
	Splits         *int        `toml:"splits"`
	PollInterval   string      `toml:"poll_interval"`
	RequestTimeout string      `toml:"request_timeout"`
	MetricsAddr    string      `toml:"metrics_addr"`
	Viewport       rawViewport `toml:"viewport"`
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if v := strings.TrimSpace(raw.APIPrefix); v != "" {
		cfg.APIPrefix = v
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	if raw.Splits != nil {
		if *raw.Splits < 1 || *raw.Splits > maxSplits {
			return Config{}, fmt.Errorf("splits must be between 1 and %d, got %d", maxSplits, *raw.Splits)
		}
		cfg.Splits = *raw.Splits
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}

	vp := raw.Viewport
	override(&cfg.Viewport.Bounds.MinLat, vp.MinLat)
	override(&cfg.Viewport.Bounds.MaxLat, vp.MaxLat)
	override(&cfg.Viewport.Bounds.MinLng, vp.MinLng)
	override(&cfg.Viewport.Bounds.MaxLng, vp.MaxLng)
	override(&cfg.Viewport.Resolution.Vert, vp.VertDef)
	override(&cfg.Viewport.Resolution.Horiz, vp.HorizDef)
	if _, err := geo.Partition(cfg.Viewport.Bounds, cfg.Viewport.Resolution, 1); err != nil {
		return Config{}, fmt.Errorf("viewport: %w", err)
	}

	return cfg, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func override(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
