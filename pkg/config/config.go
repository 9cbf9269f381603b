// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all licorflow configuration.
type Config struct {
	Version int `yaml:"version"`

	Conversion ConversionConfig `yaml:"conversion"`
	Watch      WatchConfig      `yaml:"watch"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ConversionConfig controls default conversion behavior.
type ConversionConfig struct {
	Device      string `yaml:"device"`      // instrument model, e.g. 6800
	Config      string `yaml:"config"`      // measurement configuration
	Format      string `yaml:"format"`      // parquet | arrow | csv
	Compression string `yaml:"compression"` // snappy | zstd | gzip | lz4 | brotli | none
	Workers     int    `yaml:"workers"`     // 0 = one per CPU
	OutputDir   string `yaml:"output_dir"`
}

// WatchConfig controls the directory watcher.
type WatchConfig struct {
	// Settle is how long a file must stay unchanged before it is picked
	// up. Consoles write logs incrementally over a whole measurement run.
	Settle  time.Duration `yaml:"settle"`
	Pattern string        `yaml:"pattern"` // glob matched against file names
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Conversion: ConversionConfig{
			Device:      "6800",
			Config:      "standard",
			Format:      "parquet",
			Compression: "snappy",
			Workers:     0,
			OutputDir:   ".",
		},
		Watch: WatchConfig{
			Settle:  2 * time.Second,
			Pattern: "*logdata*",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()

	for _, path := range m.getConfigPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	m.loadEnv()
	return nil
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/licorflow/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".licorflow", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".licorflow.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	if src.Conversion.Device != "" {
		m.config.Conversion.Device = src.Conversion.Device
	}
	if src.Conversion.Config != "" {
		m.config.Conversion.Config = src.Conversion.Config
	}
	if src.Conversion.Format != "" {
		m.config.Conversion.Format = src.Conversion.Format
	}
	if src.Conversion.Compression != "" {
		m.config.Conversion.Compression = src.Conversion.Compression
	}
	if src.Conversion.Workers != 0 {
		m.config.Conversion.Workers = src.Conversion.Workers
	}
	if src.Conversion.OutputDir != "" {
		m.config.Conversion.OutputDir = src.Conversion.OutputDir
	}

	if src.Watch.Settle != 0 {
		m.config.Watch.Settle = src.Watch.Settle
	}
	if src.Watch.Pattern != "" {
		m.config.Watch.Pattern = src.Watch.Pattern
	}

	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("LICORFLOW_DEVICE"); v != "" {
		m.config.Conversion.Device = v
	}
	if v := os.Getenv("LICORFLOW_CONFIG"); v != "" {
		m.config.Conversion.Config = v
	}
	if v := os.Getenv("LICORFLOW_FORMAT"); v != "" {
		m.config.Conversion.Format = v
	}
	if v := os.Getenv("LICORFLOW_COMPRESSION"); v != "" {
		m.config.Conversion.Compression = v
	}
	if v := os.Getenv("LICORFLOW_WORKERS"); v != "" {
		var workers int
		if _, err := fmt.Sscanf(v, "%d", &workers); err == nil {
			m.config.Conversion.Workers = workers
		}
	}
	if v := os.Getenv("LICORFLOW_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".licorflow")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0o644)
}

// Global instance
var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the global configuration manager.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		globalManager.Load()
	})
	return globalManager
}
