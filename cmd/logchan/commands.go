package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/logchan/channel"
	"go.jacobcolvin.com/logchan/settings"
	"go.jacobcolvin.com/logchan/version"
)

// errUnknownChannel is returned when a channel named on the command line
// matches no enabled channel.
var errUnknownChannel = errors.New("no enabled channel matches")

// apply applies any pending override in the configured store the way a
// starting program would, then layers the tokens returned by edit over the
// result, persists it and prints it to w.
func (a *app) apply(ctx context.Context, w io.Writer, edit func(settings.Result) (string, error)) error {
	store, err := a.settings.NewStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	res, err := settings.Apply(ctx, store)
	if err != nil {
		return err
	}

	extra, err := edit(res)
	if err != nil {
		return err
	}

	if extra != "" {
		res, err = settings.Apply(ctx, settings.NewOverlay(store, extra))
		if err != nil {
			return err
		}
	}

	slog.DebugContext(ctx, "applied channel settings",
		slog.String("mode", res.Mode.String()),
		slog.Int("enabled", len(res.Enabled)),
	)

	return printResult(w, res)
}

// tokens returns an edit that ignores the current settings.
func tokens(s string) func(settings.Result) (string, error) {
	return func(settings.Result) (string, error) {
		return s, nil
	}
}

// disableTokens returns removal tokens for every enabled entry matching one
// of names. A dotted name matches its full name only; an undotted name also
// matches that short name in any subsystem.
func disableTokens(cur settings.Result, names []string) (string, error) {
	var out []string

	for _, name := range names {
		matched := matchEnabled(cur.Enabled, name)
		if len(matched) == 0 {
			return "", fmt.Errorf("%w: %s", errUnknownChannel, name)
		}

		for _, m := range matched {
			out = append(out, "-"+m)
		}
	}

	return strings.Join(out, ","), nil
}

func matchEnabled(enabled []string, name string) []string {
	subsystem, short := channel.SplitName(name)
	full := subsystem + "." + short
	dotted := strings.Contains(name, ".")

	var out []string

	for _, e := range enabled {
		eSubsystem, eShort := channel.SplitName(e)

		switch {
		case e == name, eSubsystem+"."+eShort == full:
			out = append(out, e)
		case !dotted && eShort == short:
			out = append(out, e)
		}
	}

	return out
}

func closeStore(s *settings.Overlay) {
	if c, ok := s.Store.(io.Closer); ok {
		_ = c.Close()
	}
}

func printResult(w io.Writer, res settings.Result) error {
	for _, name := range res.Enabled {
		_, err := fmt.Fprintln(w, name)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	return nil
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the enabled channels",
		Long: `Print the enabled channels, one per line. A pending override is
applied and persisted first, as it would be when a program starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.apply(cmd.Context(), cmd.OutOrStdout(), tokens(""))
		},
	}
}

func (a *app) newEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <channel> [channel ...]",
		Short: "Enable channels",
		Long: `Enable channels by short name ("net"), which enables that name in
every subsystem, or by full name ("app.net").`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := settings.Split(strings.Join(args, ","))

			add := make([]string, 0, len(names))
			for _, name := range names {
				add = append(add, "+"+strings.TrimLeft(name, "+-="))
			}

			return a.apply(cmd.Context(), cmd.OutOrStdout(), tokens(strings.Join(add, ",")))
		},
	}
}

func (a *app) newDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <channel> [channel ...]",
		Short: "Disable channels",
		Long: `Disable channels. A full name ("app.net") removes that channel; a short
name ("net") removes every enabled entry with that short name, whatever its
subsystem. Naming a channel that is not enabled is an error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := settings.Split(strings.Join(args, ","))
			for i, name := range names {
				names[i] = strings.TrimLeft(name, "+-=")
			}

			return a.apply(cmd.Context(), cmd.OutOrStdout(), func(cur settings.Result) (string, error) {
				return disableTokens(cur, names)
			})
		},
	}
}

func (a *app) newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [channel ...]",
		Short: "Replace the enabled channels",
		Long: `Discard the persisted channel set and enable only the given channels.
With no arguments every channel is disabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd.Context(), cmd.OutOrStdout(), tokens("=,"+strings.Join(args, ",")))
		},
	}
}

func (a *app) newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for settings files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := json.MarshalIndent(settings.Schema(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal schema: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()

			out := []byte(info.String())
			if asJSON {
				var err error

				out, err = json.Marshal(info)
				if err != nil {
					return fmt.Errorf("marshal version: %w", err)
				}
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
