// Package config loads the host's TOML settings file. Settings cover how
// to reach the worker (interpreter, script, caches) and run-wide defaults;
// per-run choices live in model.RunConfig.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

type Settings struct {
	Python       string `toml:"python"`
	WorkerScript string `toml:"worker_script"`
	ModelsDir    string `toml:"models_dir"`
	WorkDir      string `toml:"work_dir"`
	DBURL        string `toml:"db_url"`
	CookiesPath  string `toml:"cookies_path"`
}

func Default() Settings {
	return Settings{
		Python:       "python3",
		WorkerScript: filepath.Join("lib", "python-core", "miner.py"),
		WorkDir:      "output",
	}
}

// DefaultPath is the per-user settings location.
func DefaultPath() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "song-miner", "config.toml")
	}
	return filepath.Join(".song-miner", "config.toml")
}

// Load reads the settings file at path. A missing file yields defaults so
// the host works out of the box next to the worker checkout.
func Load(path string) (Settings, error) {
	settings := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return settings, nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Python) == "" {
		return errors.New("python interpreter must not be empty")
	}
	if strings.TrimSpace(s.WorkerScript) == "" {
		return errors.New("worker_script must not be empty")
	}
	if strings.TrimSpace(s.WorkDir) == "" {
		return errors.New("work_dir must not be empty")
	}
	return nil
}

// WriteSample writes the annotated sample config, refusing to clobber an
// existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config %s: %w", path, err)
	}
	return nil
}
