package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"geoscatter/internal/config"
)

func New(cfg config.Config, appName string) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg, appName)
}

// NewWithWriter builds a colored text logger in development and a JSON logger elsewhere
func NewWithWriter(w io.Writer, cfg config.Config, appName string) *slog.Logger {
	if cfg.IsDevelopment() {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level(),
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level(),
	})
	return slog.New(h).With(
		"app", appName,
		"env", cfg.AppEnv,
	)
}
