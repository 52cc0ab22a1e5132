// Package logging configures slog for the UniNest server.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup logs to stdout.
func Setup(devMode bool) {
	SetupWriter(os.Stdout, devMode)
}

// SetupWriter makes slog's default logger write to w: text from debug up in
// dev mode, JSON from info up otherwise. Every record carries service=uninest.
func SetupWriter(w io.Writer, devMode bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if devMode {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h).With(slog.String("service", "uninest")))
}
