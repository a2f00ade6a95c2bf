package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
)

var LoggingSet = wire.NewSet(
	NewLogger,
)

const moduleDir = "treb-gov/"

// NewLogger builds the process logger. Level comes from TREBGOV_LOG_LEVEL
// unless --debug is set, and every record carries the acting sender.
func NewLogger(cfg *config.RuntimeConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("TREBGOV_LOG_LEVEL"), slog.LevelWarn),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				// governance time is simulated; wall time only matters when debugging
				if !cfg.Debug {
					return slog.Attr{}
				}
			case slog.SourceKey:
				if src, ok := a.Value.Any().(*slog.Source); ok {
					src.File = shortPath(src.File)
				}
			}
			return a
		},
	}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	if cfg.Sender != (common.Address{}) {
		logger = logger.With("sender", cfg.Sender.Hex())
	}
	return logger
}

func parseLevel(val string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// shortPath trims source paths to be relative to the module root
func shortPath(file string) string {
	if idx := strings.LastIndex(file, moduleDir); idx != -1 {
		return file[idx+len(moduleDir):]
	}
	return filepath.Base(file)
}
