package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/arti-chat/core/config"
	"github.com/arti-chat/core/internal/dispatch"
	"github.com/arti-chat/core/internal/logger"
)

// loadConfig loads the daemon's YAML config, falling back to an
// all-defaults Config when no file is present anywhere config.Load
// looks, matching the teacher's "never fail to start for a missing
// optional file" posture.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
		}
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLoggerFromConfig(cfg *config.Config) *logger.StructuredLogger {
	level := logger.InfoLevel
	if cfg.Logging != nil {
		switch strings.ToUpper(cfg.Logging.Level) {
		case "DEBUG":
			level = logger.DebugLevel
		case "WARN":
			level = logger.WarnLevel
		case "ERROR":
			level = logger.ErrorLevel
		}
	}

	out := os.Stdout
	l := logger.NewLogger(out, level)
	logger.SetDefaultLogger(l)
	return l
}

// commandNotifier shells out to the configured desktop-notification
// command (spec §1: OS desktop-notification surfaces are an external
// collaborator, treated as a black box). It is only installed when
// Notifications.Command is set; otherwise dispatch.NoopNotifier is
// used instead.
type commandNotifier struct {
	command string
}

func (n commandNotifier) Notify(onionID, text string) error {
	fields := strings.NewReplacer("{onion_id}", onionID, "{text}", text).Replace(n.command)
	parts := strings.Fields(fields)
	if len(parts) == 0 {
		return nil
	}
	return exec.Command(parts[0], parts[1:]...).Run()
}

func newNotifier(cfg *config.Config) dispatch.Notifier {
	if cfg.Notifications == nil || cfg.Notifications.Command == "" {
		return dispatch.NoopNotifier{}
	}
	return commandNotifier{command: cfg.Notifications.Command}
}
