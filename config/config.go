// Copyright (C) 2026 arti-chat authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the daemon.
type Config struct {
	Environment   string                `yaml:"environment" json:"environment"`
	Identity      *IdentityConfig       `yaml:"identity" json:"identity"`
	Database      *DatabaseConfig       `yaml:"database" json:"database"`
	Tor           *TorConfig            `yaml:"tor" json:"tor"`
	Notifications *NotificationsConfig  `yaml:"notifications" json:"notifications"`
	Logging       *LoggingConfig        `yaml:"logging" json:"logging"`
	Metrics       *MetricsConfig        `yaml:"metrics" json:"metrics"`
	Health        *HealthConfig         `yaml:"health" json:"health"`
}

// IdentityConfig locates the daemon's per-user data directory and the
// IPC socket names carved out of it.
type IdentityConfig struct {
	DataDir         string `yaml:"data_dir" json:"data_dir"`
	BroadcastSocket string `yaml:"broadcast_socket" json:"broadcast_socket"`
	RPCSocket       string `yaml:"rpc_socket" json:"rpc_socket"`
}

// DatabaseConfig points at the local sqlite file backing internal/store.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// TorConfig controls the overlay client bootstrap and the dispatcher's
// virtual-port filter and the retry loop's tick/window.
type TorConfig struct {
	BootstrapTimeout time.Duration `yaml:"bootstrap_timeout" json:"bootstrap_timeout"`
	VirtualPort      uint16        `yaml:"virtual_port" json:"virtual_port"`
	RetryTick        time.Duration `yaml:"retry_tick" json:"retry_tick"`
	RetryMinAge      time.Duration `yaml:"retry_min_age" json:"retry_min_age"`
	RetryMaxAge      time.Duration `yaml:"retry_max_age" json:"retry_max_age"`
}

// NotificationsConfig controls the optional desktop-notification hook
// fired by the dispatcher on inbound messages when the UI is unfocused.
type NotificationsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Command string `yaml:"command" json:"command"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig represents health check configuration.
type HealthConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Port    int      `yaml:"port" json:"port"`
	Path    string   `yaml:"path" json:"path"`
	Checks  []string `yaml:"checks" json:"checks"`
}

// LoadFromFile loads configuration from a file, trying YAML then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile saves configuration to a file, format determined by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults fills unset fields with the daemon's defaults.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Identity == nil {
		cfg.Identity = &IdentityConfig{}
	}
	if cfg.Identity.DataDir == "" {
		cfg.Identity.DataDir = ".arti-chat"
	}
	if cfg.Identity.BroadcastSocket == "" {
		cfg.Identity.BroadcastSocket = "broadcast.sock"
	}
	if cfg.Identity.RPCSocket == "" {
		cfg.Identity.RPCSocket = "rpc.sock"
	}

	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "chat.db"
	}

	if cfg.Tor == nil {
		cfg.Tor = &TorConfig{}
	}
	if cfg.Tor.BootstrapTimeout == 0 {
		cfg.Tor.BootstrapTimeout = 60 * time.Second
	}
	if cfg.Tor.VirtualPort == 0 {
		cfg.Tor.VirtualPort = 80
	}
	if cfg.Tor.RetryTick == 0 {
		cfg.Tor.RetryTick = 20 * time.Second
	}
	if cfg.Tor.RetryMinAge == 0 {
		cfg.Tor.RetryMinAge = 30 * time.Second
	}
	if cfg.Tor.RetryMaxAge == 0 {
		cfg.Tor.RetryMaxAge = 300 * time.Second
	}

	if cfg.Notifications == nil {
		cfg.Notifications = &NotificationsConfig{}
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health == nil {
		cfg.Health = &HealthConfig{}
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 9091
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}
