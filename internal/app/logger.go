package app

import (
	"strings"

	"github.com/ud28188-create/codonyx.org/pkg/logger"
)

// ConfigureLogging installs the global logger from the server section, defaulting to info/json.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.Configure(logger.Options{Level: level, Format: cfg.LogFormat})
}
