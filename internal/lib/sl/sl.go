// Package sl holds slog helpers shared by every layer.
package sl

import (
	"io"
	"log/slog"
)

// Err wraps err as the "error" attribute.
//
//	log.Error("failed to load project", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// SetupLogger returns a debug text logger for local runs and a JSON logger
// otherwise, at debug level in dev and info level in prod.
func SetupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case "local":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case "dev":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
