package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig holds defaults read from the YAML config file. Zero values mean
// "not set" and leave the built-in defaults alone.
type FileConfig struct {
	TempDir   string        `yaml:"temp_dir"`
	KeepParts bool          `yaml:"keep_parts"`
	InMemory  bool          `yaml:"in_memory"`
	Lenient   bool          `yaml:"lenient"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Debug     bool          `yaml:"debug"`
}

func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "segdl", "config.yaml")
}

// LoadConfig reads path. A missing file yields an empty config so the default
// location never has to exist.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	if cfg.Timeout < 0 {
		return cfg, fmt.Errorf("invalid timeout %s in %s", cfg.Timeout, path)
	}
	return cfg, nil
}

// Options converts the file defaults into download options. Command-line
// flags are layered on top by the caller.
func (c FileConfig) Options() DownloadOptions {
	return DownloadOptions{
		TempDir:   c.TempDir,
		KeepParts: c.KeepParts,
		InMemory:  c.InMemory,
		Lenient:   c.Lenient,
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
	}
}
