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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(LoaderOptions{
		ConfigDir:      ".",
		Environment:    "development",
		SkipValidation: true,
	})

	if err != nil {
		t.Fatalf("Failed to load development config: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}

	if cfg.Tor == nil || cfg.Tor.RetryTick == 0 {
		t.Error("Tor.RetryTick should have a default value")
	}
}

func TestLoadForEnvironment(t *testing.T) {
	tests := []string{"development", "staging", "production", "local"}

	for _, env := range tests {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(LoaderOptions{
				ConfigDir:      ".",
				Environment:    env,
				SkipValidation: true,
			})
			if err != nil {
				t.Fatalf("Failed to load %s config: %v", env, err)
			}

			if cfg.Environment != env {
				t.Errorf("Environment = %q, want %q", cfg.Environment, env)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	os.Setenv("ARTI_CHAT_DB_PATH", "/tmp/override-chat.db")
	os.Setenv("ARTI_CORE_LOG_LEVEL", "debug")
	defer os.Unsetenv("ARTI_CHAT_DB_PATH")
	defer os.Unsetenv("ARTI_CORE_LOG_LEVEL")

	cfg, err := Load(LoaderOptions{
		ConfigDir:      ".",
		Environment:    "development",
		SkipValidation: true,
	})

	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.Path != "/tmp/override-chat.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/override-chat.db")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadWithCustomConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	testConfig := `
environment: test
logging:
  level: info
  format: json
`
	if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(LoaderOptions{
		ConfigDir:      tmpDir,
		Environment:    "test",
		SkipValidation: true,
	})

	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg == nil {
		t.Fatal("Config should not be nil")
	}
}

func TestDefaultLoaderOptions(t *testing.T) {
	opts := DefaultLoaderOptions()

	if opts.ConfigDir != "config" {
		t.Errorf("ConfigDir = %q, want %q", opts.ConfigDir, "config")
	}

	if opts.SkipEnvSubstitution {
		t.Error("SkipEnvSubstitution should be false by default")
	}

	if opts.SkipValidation {
		t.Error("SkipValidation should be false by default")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Environment != "development" {
		t.Errorf("Default environment = %q, want %q", cfg.Environment, "development")
	}
}

func TestTorConfigDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Tor.VirtualPort != 80 {
		t.Errorf("VirtualPort = %d, want %d", cfg.Tor.VirtualPort, 80)
	}

	if cfg.Tor.RetryTick != 20*time.Second {
		t.Errorf("RetryTick = %v, want %v", cfg.Tor.RetryTick, 20*time.Second)
	}

	if cfg.Tor.RetryMinAge != 30*time.Second {
		t.Errorf("RetryMinAge = %v, want %v", cfg.Tor.RetryMinAge, 30*time.Second)
	}

	if cfg.Tor.RetryMaxAge != 300*time.Second {
		t.Errorf("RetryMaxAge = %v, want %v", cfg.Tor.RetryMaxAge, 300*time.Second)
	}
}

func TestDatabaseConfigDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Database.Path != "chat.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "chat.db")
	}
}

func TestValidateRejectsInvertedRetryWindow(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Tor.RetryMinAge = 400 * time.Second
	cfg.Tor.RetryMaxAge = 300 * time.Second

	if err := Validate(cfg); err == nil {
		t.Error("expected Validate to reject RetryMinAge > RetryMaxAge")
	}
}
