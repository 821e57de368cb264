// arti-chat - background messaging core
// Copyright (C) 2026 arti-chat authors
//
// This file is part of arti-chat.
//
// arti-chat is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// arti-chat is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with arti-chat. If not, see <https://www.gnu.org/licenses/>.

package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a loaded Config for values the daemon cannot run with.
// It is intentionally narrow: defaults have already been applied by
// setDefaults, so this only rejects values a user explicitly set wrong.
func Validate(cfg *Config) error {
	if cfg.Logging != nil && cfg.Logging.Level != "" && !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level %q", cfg.Logging.Level)
	}

	if cfg.Tor != nil && cfg.Tor.RetryMinAge > cfg.Tor.RetryMaxAge {
		return fmt.Errorf("tor.retry_min_age (%s) must not exceed tor.retry_max_age (%s)", cfg.Tor.RetryMinAge, cfg.Tor.RetryMaxAge)
	}

	if cfg.Database != nil && cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}
