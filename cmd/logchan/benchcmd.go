package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/logchan/bench"
	"go.jacobcolvin.com/logchan/channel"
	"go.jacobcolvin.com/logchan/settings"
)

func newBenchCmd() *cobra.Command {
	cfg := bench.NewConfig()

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure channel logging cost while toggling the channel",
		Long: `Log on the channel ` + bench.ChannelName + ` from several goroutines while
another goroutine toggles it, then print the call counts and the mean cost per
call. Settings are kept in memory and the configured store is not touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := channel.NewManager(cmd.Context(), &settings.MemoryStore{},
				channel.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // Close always returns nil.

			report, err := cfg.Run(cmd.Context(), m)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			return nil
		},
	}

	cfg.RegisterFlags(cmd.Flags())

	err := cfg.RegisterCompletions(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	return cmd
}
