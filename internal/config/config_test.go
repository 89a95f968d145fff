package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	viper.Reset()
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7780" || cfg.LogLevel != "info" || cfg.Name != "driver" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Room.TickRate != 60 || cfg.Room.SnapshotInterval != 50*time.Millisecond {
		t.Fatalf("room defaults not applied: %+v", cfg.Room)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	body := []byte(`{
		"listen": ":9999",
		"logLevel": "debug",
		"room": {"tickRate": 30, "electionTimeoutMs": 1000}
	}`)
	if err := os.WriteFile(filepath.Join(dir, "p2racer.cfg.json"), body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9999" || cfg.LogLevel != "debug" {
		t.Fatalf("file values ignored: %+v", cfg)
	}
	if cfg.Room.TickRate != 30 || cfg.Room.ElectionTimeout != time.Second {
		t.Fatalf("room overrides ignored: %+v", cfg.Room)
	}
	// Untouched keys keep their defaults.
	if cfg.Name != "driver" || cfg.Room.InputInterval != 33*time.Millisecond {
		t.Fatalf("defaults lost on partial file: %+v", cfg)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "p2racer.cfg.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("malformed config accepted")
	}
}
