// Package prefs handles pilotdeck user preferences persistence.
// Preferences are stored in ~/.config/pilotdeck/prefs.toml.
package prefs

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds how the dashboard looks and how far each key press moves
// things.
type Prefs struct {
	Theme string `toml:"theme"`
	// HeadingStep is the heading offset change, in degrees, per +/- press.
	HeadingStep float64 `toml:"heading_step"`
	// PanStep is the fraction of the viewport moved per arrow press.
	PanStep float64 `toml:"pan_step"`
	// ZoomStep scales the viewport per zoom press; must be > 1.
	ZoomStep float64 `toml:"zoom_step"`
}

const (
	defaultPrefsPath   = "~/.config/pilotdeck/prefs.toml"
	defaultTheme       = "Nightfox"
	defaultHeadingStep = 1
	defaultPanStep     = 0.25
	defaultZoomStep    = 2
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{
		Theme:       defaultTheme,
		HeadingStep: defaultHeadingStep,
		PanStep:     defaultPanStep,
		ZoomStep:    defaultZoomStep,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem yields defaults: a broken
// prefs file never keeps the dashboard from starting.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}
	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return Default(), nil
	}
	var p Prefs
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return Default(), nil
	}
	return p.normalized(), nil
}

// Save writes preferences to path, creating directories as needed. The file
// is replaced atomically.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// normalized replaces blank or out-of-range fields with defaults.
func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	if !positive(p.HeadingStep) || p.HeadingStep > 90 {
		p.HeadingStep = defaultHeadingStep
	}
	if !positive(p.PanStep) || p.PanStep > 1 {
		p.PanStep = defaultPanStep
	}
	if !positive(p.ZoomStep) || p.ZoomStep <= 1 {
		p.ZoomStep = defaultZoomStep
	}
	return p
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
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
