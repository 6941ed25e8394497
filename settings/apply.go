package settings

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.jacobcolvin.com/logchan/version"
)

// Apply reads the persisted list and the override from s, merges them with
// [Resolve], persists the result and clears the override.
//
// When [EnvDebug] is set a one-line diagnostic listing the resolved set is
// written to the default [slog.Logger].
func Apply(ctx context.Context, s Store) (Result, error) {
	persisted, err := s.Get(ctx, KeyEnabled)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read %s: %w", ErrStore, KeyEnabled, err)
	}

	override, err := s.Get(ctx, KeyOverride)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read %s: %w", ErrStore, KeyOverride, err)
	}

	res := Resolve(persisted, override)

	err = s.Set(ctx, KeyEnabled, res.String())
	if err != nil {
		return Result{}, fmt.Errorf("%w: write %s: %w", ErrStore, KeyEnabled, err)
	}

	err = s.Set(ctx, KeyOverride, "")
	if err != nil {
		return Result{}, fmt.Errorf("%w: clear %s: %w", ErrStore, KeyOverride, err)
	}

	if os.Getenv(EnvDebug) != "" {
		LogResult(ctx, slog.Default(), res)
	}

	return res, nil
}

// LogResult writes the startup diagnostic for res to logger.
func LogResult(ctx context.Context, logger *slog.Logger, res Result) {
	logger.InfoContext(ctx, "log channels resolved",
		slog.String("build", version.Mode),
		slog.String("mode", res.Mode.String()),
		slog.Any("enabled", res.Enabled),
	)
}
