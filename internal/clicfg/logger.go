package clicfg

import (
	"log/slog"
	"os"
)

// BuildLogger constructs the process-wide logger from the resolved config,
// with verbose/quiet overriding the config-file level since CLI flags always
// win. format selects between slog's text and JSON handlers.
func BuildLogger(cfg *Config, verbose, quiet bool) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	if verbose {
		level = slog.LevelDebug
	}

	if quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
