package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if cfg.NotifyBuffer != 64 {
		t.Errorf("Expected notify buffer 64, got %d", cfg.NotifyBuffer)
	}
	if !cfg.SampleOnClick {
		t.Error("Expected click sampling on by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		check   func(*Config) bool
	}{
		{"uppercase level", func(c *Config) { c.LogLevel = " DEBUG " }, false, func(c *Config) bool { return c.LogLevel == "debug" }},
		{"warning alias", func(c *Config) { c.LogLevel = "warning" }, false, func(c *Config) bool { return c.LogLevel == "warn" }},
		{"empty level", func(c *Config) { c.LogLevel = "" }, false, func(c *Config) bool { return c.LogLevel == "info" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true, nil},
		{"json format", func(c *Config) { c.LogFormat = "JSON" }, false, func(c *Config) bool { return c.LogFormat == "json" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true, nil},
		{"bad addr", func(c *Config) { c.ListenAddr = "localhost" }, true, nil},
		{"zero buffer", func(c *Config) { c.NotifyBuffer = 0 }, false, func(c *Config) bool { return c.NotifyBuffer == 64 }},
		{"negative buffer", func(c *Config) { c.NotifyBuffer = -1 }, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Unexpected result: %+v", cfg)
			}
		})
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("Expected nil error for missing file, got %v", err)
	}
	if m.Get() != *DefaultConfig() {
		t.Errorf("Expected defaults, got %+v", m.Get())
	}
}

func TestLoadJSONMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"listen_addr":"0.0.0.0:9000","api_token":"abc","auto_start_watch":true}`)

	m, _ := NewManager(path)
	called := 0
	m.RegisterChangeCallback(func() { called++ })
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.ListenAddr != "0.0.0.0:9000" || cfg.APIToken != "abc" || !cfg.AutoStartWatch {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if !cfg.SampleOnClick || cfg.LogLevel != "info" {
		t.Errorf("Defaults not kept for missing fields: %+v", cfg)
	}
	if called != 1 {
		t.Errorf("Expected change callback once, got %d", called)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_level: Debug\nlog_format: json\nsample_on_click: false\nnotify_buffer: 8\n")

	m, _ := NewManager(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("Expected debug/json, got %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.SampleOnClick {
		t.Error("Expected sampling disabled")
	}
	if cfg.NotifyBuffer != 8 {
		t.Errorf("Expected notify buffer 8, got %d", cfg.NotifyBuffer)
	}
	if cfg.ListenAddr != DefaultConfig().ListenAddr {
		t.Errorf("Expected default listen addr, got %s", cfg.ListenAddr)
	}
}

func TestLoadInvalidKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"api_token":"first"}`)

	m, _ := NewManager(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	writeFile(t, path, `{"api_token":"second","log_level":"shout"}`)
	if err := m.Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	writeFile(t, path, `{not json`)
	if err := m.Load(); err == nil {
		t.Error("Expected parse error")
	}

	if got := m.Get().APIToken; got != "first" {
		t.Errorf("Expected previous token to survive, got %q", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m, _ := NewManager(filepath.Join(t.TempDir(), "config.json"))
	cfg := m.Get()
	cfg.APIToken = "mutated"
	if m.Get().APIToken != "" {
		t.Error("Expected Get to return an independent copy")
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"api_token":"one"}`)

	m, _ := NewManager(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	changed := make(chan struct{}, 8)
	m.RegisterChangeCallback(func() { changed <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Watch(ctx); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeFile(t, path, `{"api_token":"two"}`)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-changed:
			if m.Get().APIToken == "two" {
				return
			}
		case <-deadline:
			t.Fatalf("Expected reload to pick up new token, got %q", m.Get().APIToken)
		}
	}
}
