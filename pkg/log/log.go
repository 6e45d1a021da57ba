// Package log builds the slog loggers used by the tributary command.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w. Inside Kubernetes it writes zerolog
// JSON lines, everywhere else tinted console output.
func New(level slog.Level, w io.Writer) *slog.Logger {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return slog.New(&levelHandler{Handler: logr.ToSlogHandler(newZerologr(level, w)), level: level})
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339Nano,
		NoColor:    noColor,
	}))
}

// ParseLevel accepts the slog level names, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

func newZerologr(level slog.Level, w io.Writer) logr.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if v := int(slog.LevelInfo - level); v > 0 {
		// slog debug maps to logr V(4).
		zerologr.SetMaxV(v)
		zerolog.SetGlobalLevel(zerolog.Level(1 - v))
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	return zerologr.New(&zl)
}

type levelHandler struct {
	slog.Handler
	level slog.Level
}

func (h *levelHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level && h.Handler.Enabled(ctx, l)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
