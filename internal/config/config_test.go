package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./typegait.db"
identify:
  default_top_k: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Identify.DefaultTopK != 3 {
		t.Errorf("DefaultTopK = %d, want 3", cfg.Identify.DefaultTopK)
	}
	if cfg.Identify.MaxTopK != 50 {
		t.Errorf("MaxTopK = %d, want default 50", cfg.Identify.MaxTopK)
	}
	// "./" paths expand relative to the config directory.
	if cfg.Storage.DatabasePath != filepath.Join(dir, "typegait.db") {
		t.Errorf("DatabasePath = %q, want under %q", cfg.Storage.DatabasePath, dir)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{invalid"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database path default should be set")
	}
	if cfg.Identify.DefaultTopK != 5 || cfg.Identify.MaxTopK != 50 {
		t.Errorf("identify defaults: %+v", cfg.Identify)
	}
}
