package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `temp_dir: /var/tmp/segdl
keep_parts: true
lenient: true
user_agent: custom/2.0
timeout: 90s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	opts := cfg.Options()
	if opts.TempDir != "/var/tmp/segdl" || !opts.KeepParts || !opts.Lenient || opts.InMemory {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.UserAgent != "custom/2.0" || opts.Timeout != 90*time.Second {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != (FileConfig{}) {
		t.Errorf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err != nil {
		t.Errorf("empty path: %v", err)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"bad-yaml.yaml": "temp_dir: [unclosed",
		"negative.yaml": "timeout: -5s",
		"bad-type.yaml": "keep_parts: maybe",
	} {
		path := filepath.Join(dir, name)
		os.WriteFile(path, []byte(content), 0644)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
