// Package config loads and persists the utility's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Zero values are filled from Default
// at load time, so a partial file is fine.
type Config struct {
	Notifications Notifications  `yaml:"notifications"`
	Polling       Polling        `yaml:"polling"`
	Device        DeviceDefaults `yaml:"device"`
}

// Notifications controls desktop battery alerts raised by the watch loop.
type Notifications struct {
	Enabled        bool  `yaml:"enabled"`
	Thresholds     []int `yaml:"thresholds"`      // notify when battery falls to these percents
	NotifyCharging bool  `yaml:"notify_charging"` // announce charge start/stop
	NotifyFull     bool  `yaml:"notify_full"`     // announce 100% while charging
}

// Polling controls the watch loop cadence.
type Polling struct {
	IntervalSeconds   int `yaml:"interval_seconds"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds"` // delay before reconnect attempts
	MaxRetries        int `yaml:"max_retries"`         // reconnect attempts before giving up, 0 for unlimited
}

// DeviceDefaults are settings pushed to the mouse whenever it connects.
type DeviceDefaults struct {
	ApplyOnConnect      bool `yaml:"apply_on_connect"`
	PollingRateHz       int  `yaml:"polling_rate_hz"`
	BatteryAlertPercent int  `yaml:"battery_alert_percent"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Notifications: Notifications{
			Enabled:        true,
			Thresholds:     []int{20, 10, 5},
			NotifyCharging: true,
		},
		Polling: Polling{
			IntervalSeconds:   60,
			RetryDelaySeconds: 2,
			MaxRetries:        5,
		},
		Device: DeviceDefaults{
			PollingRateHz:       1000,
			BatteryAlertPercent: 10,
		},
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "dartctl"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path, layering the file's values over Default. A missing file
// is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Polling.IntervalSeconds <= 0 {
		cfg.Polling.IntervalSeconds = Default().Polling.IntervalSeconds
	}
	if cfg.Polling.RetryDelaySeconds <= 0 {
		cfg.Polling.RetryDelaySeconds = Default().Polling.RetryDelaySeconds
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
