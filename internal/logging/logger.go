// Package logging configures the process-wide structured logger.
// Output is JSON, to stdout and optionally to a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultMaxFileSize = 50 * 1024 * 1024 // bytes per log file before rotation
	defaultMaxBackups  = 5
)

// ParseLevel converts a config string to a slog.Level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default logger. When filePath is non-empty the
// logger also writes to a rotating file; the returned closer releases
// it and is a no-op otherwise.
func Setup(level, filePath string) (io.Closer, error) {
	writer := io.Writer(os.Stdout)
	var closer io.Closer = nopCloser{}

	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return nil, err
		}
		fileWriter, err := NewRotatingFileWriter(filePath, defaultMaxFileSize, defaultMaxBackups)
		if err != nil {
			return nil, err
		}
		writer = io.MultiWriter(os.Stdout, fileWriter)
		closer = fileWriter
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
