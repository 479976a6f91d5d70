package updater

import (
	"context"
	"path/filepath"

	"github.com/rgigli/bedrock-server-updater/internal/config"
	"github.com/rgigli/bedrock-server-updater/internal/logger"
)

// configureLogging applies the logging section of the settings file to the
// global logger. A relative log file path is resolved against the target
// directory. Problems here degrade to console-only logging, never abort.
func configureLogging(ctx context.Context, cfg *config.Config, targetDir string) {
	level, ok := logger.ParseLogLevel(cfg.Logging.LogLevel)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, falling back to info",
			"log_level", cfg.Logging.LogLevel)
	} else {
		logger.SetLevel(level)
	}

	if cfg.Logging.SaveLogs == nil || !*cfg.Logging.SaveLogs {
		return
	}

	logFile := cfg.Logging.LogFile
	if !filepath.IsAbs(logFile) {
		logFile = filepath.Join(targetDir, logFile)
	}

	fileLogger, err := logger.NewWithFile(nil, logFile)
	if err != nil {
		logger.WarnKV(ctx, "Unable to open log file, continuing with console logging",
			"path", logFile, "error", err)
		return
	}

	logger.SetLogger(fileLogger)
}
