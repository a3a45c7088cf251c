// Package config provides configuration management for the colorpick service.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig is returned when a loaded file fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	// ListenAddr is the host:port the API server binds to
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// APIToken is an optional bearer token for API and stream requests
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LogFormat is text or json
	LogFormat string `json:"log_format" yaml:"log_format"`

	// AutoStartWatch installs the mouse hook as soon as the service starts
	AutoStartWatch bool `json:"auto_start_watch" yaml:"auto_start_watch"`

	// SampleOnClick samples the pixel under every click
	SampleOnClick bool `json:"sample_on_click" yaml:"sample_on_click"`

	// TrayEnabled shows the system tray icon in service mode
	TrayEnabled bool `json:"tray_enabled" yaml:"tray_enabled"`

	// NotifyBuffer is how many click notifications may wait for delivery
	NotifyBuffer int `json:"notify_buffer" yaml:"notify_buffer"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     "127.0.0.1:18090",
		LogLevel:       "info",
		LogFormat:      "text",
		AutoStartWatch: false,
		SampleOnClick:  true,
		TrayEnabled:    true,
		NotifyBuffer:   64,
	}
}

// Validate normalizes the level and format names and rejects values the
// service cannot run with.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
	case "warning":
		c.LogLevel = "warn"
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	switch c.LogFormat {
	case "":
		c.LogFormat = "text"
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: listen_addr %q: %v", ErrInvalidConfig, c.ListenAddr, err)
	}

	if c.NotifyBuffer < 0 {
		return fmt.Errorf("%w: notify_buffer must not be negative", ErrInvalidConfig)
	}
	if c.NotifyBuffer == 0 {
		c.NotifyBuffer = DefaultConfig().NotifyBuffer
	}
	return nil
}

// Manager loads the configuration file and keeps the current values
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager for path. An empty path selects
// the per-user default location.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// DefaultPath returns the per-user configuration file path
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "colorpick")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "colorpick")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "colorpick")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the file the manager reads
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file leaves the defaults
// in place. A file that fails to parse or validate leaves the previous values
// in place.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("Config: no config file, using defaults", "path", m.configPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	cfg, err := parse(m.configPath, data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	slog.Info("Config: loaded", "path", m.configPath)
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// parse decodes data on top of the defaults, choosing the format by file
// extension.
func parse(path string, data []byte) (*Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse json config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}

// Watch reloads the file whenever it is written or replaced, until ctx is
// done. The parent directory is watched so editors that save by rename are
// picked up.
func (m *Manager) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}

	dir := filepath.Dir(m.configPath)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go m.watchLoop(ctx, fw)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()
	target := filepath.Clean(m.configPath)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := m.Load(); err != nil {
				slog.Warn("Config: reload failed, keeping previous values", "err", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("Config: watcher error", "err", err)
		}
	}
}
