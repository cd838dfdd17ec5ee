package obs

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger configures slog with colored output for dev/local and JSON
// everywhere else.
func NewLogger(env string, level slog.Level) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env string, level slog.Level) *slog.Logger {
	if env == "dev" || env == "local" {
		handler := tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		})
		return slog.New(handler).With("service", "pousada-console")
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	return slog.New(handler).With("service", "pousada-console")
}
