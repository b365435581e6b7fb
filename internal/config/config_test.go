package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixology.toml")
	body := `
width = 32
height = 24
fps = 12
format = "JPG"
max_per_row = 4

[onion]
enabled = true
prev = 2
mode = "tint"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Width != 32 || cfg.Height != 24 || cfg.FPS != 12 {
		t.Errorf("canvas/fps not read: %+v", cfg)
	}
	if cfg.Format != "jpeg" {
		t.Errorf("format = %q, want jpeg", cfg.Format)
	}
	if cfg.Scale != DefaultScale || cfg.JPEGQuality != DefaultJPEGQuality {
		t.Errorf("defaults lost: scale=%d quality=%d", cfg.Scale, cfg.JPEGQuality)
	}
	if !cfg.Onion.Enabled || cfg.Onion.Prev != 2 || cfg.Onion.Mode != "tint" || cfg.Onion.Fade != DefaultOnionFade {
		t.Errorf("onion = %+v", cfg.Onion)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.FPS != DefaultFPS {
		t.Errorf("fps = %d", cfg.FPS)
	}
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("width = = 3"), 0644)
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	t.Logf("error: %v", err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"too wide", func(c *Config) { c.Width = 257 }, true},
		{"zero height", func(c *Config) { c.Height = 0 }, true},
		{"unknown format", func(c *Config) { c.Format = "webp" }, true},
		{"bad onion mode", func(c *Config) { c.Onion.Mode = "blur" }, true},
		{"fps clamped", func(c *Config) { c.FPS = 500 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (cfg.FPS < 1 || cfg.FPS > 120) {
				t.Errorf("fps not clamped: %d", cfg.FPS)
			}
		})
	}
}
