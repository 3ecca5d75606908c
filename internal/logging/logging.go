// Package logging sets up the structured logger carried on the context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// ErrUnknownLevel is returned by ParseLevel for unrecognized level names.
var ErrUnknownLevel = errors.Base("logging: unknown level")

// Setup installs a tint handler writing to w as the default logger and
// returns a context carrying it.
func Setup(ctx context.Context, w io.Writer, level slog.Level, color bool) context.Context {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !color,
	})

	logger := slog.New(slogctx.NewHandler(handler, nil))
	slog.SetDefault(logger)

	return slogctx.NewCtx(ctx, logger)
}

// Ctx returns the logger carried by ctx.
func Ctx(ctx context.Context) *slog.Logger {
	return slogctx.FromCtx(ctx)
}

// With returns a context whose logger carries attrs.
func With(ctx context.Context, attrs ...any) context.Context {
	return slogctx.With(ctx, attrs...)
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("%w: %q", ErrUnknownLevel, name)
	}
}
