package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// logSink is the process logger. The panel owns the terminal, so logs only
// go to a file when one is configured.
type logSink struct {
	log  *slog.Logger
	file *os.File
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}

func (app *App) openLog() error {
	level, err := parseLevel(app.LogLevel)
	if err != nil {
		return err
	}
	var w io.Writer = io.Discard
	if path := strings.TrimSpace(app.LogFile); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		app.logs.file = f
		w = f
	}
	app.logs.log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return nil
}

func (app *App) closeLog() error {
	if app.logs.file == nil {
		return nil
	}
	err := app.logs.file.Close()
	app.logs.file = nil
	return err
}

func (app *App) logger() *slog.Logger {
	if app.logs.log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return app.logs.log
}
