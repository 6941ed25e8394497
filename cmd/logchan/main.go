// Package main provides the CLI entry point for logchan, a tool that
// inspects and edits persisted log channel settings.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/logchan/log"
	"go.jacobcolvin.com/logchan/settings"
)

func main() {
	err := loadEnv(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	err = newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// loadEnv loads path into the environment if it exists. Variables that are
// already set take precedence.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

type app struct {
	log      *log.Config
	settings *settings.Config
}

func newRootCmd() *cobra.Command {
	a := &app{
		log:      log.NewConfig(),
		settings: settings.NewConfig(),
	}

	rootCmd := &cobra.Command{
		Use:   "logchan",
		Short: "Inspect and edit log channel settings",
		Long: `logchan manages the persisted set of enabled log channels.

Settings are read from a YAML file or a Redis server. A per-run override can be
given with --log-channels or the ` + settings.EnvChannels + ` environment variable,
as a comma-separated list of tokens: "name" or "+name" enables a channel,
"-name" disables it and "=" discards the persisted set first.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			h, err := a.log.NewHandler(os.Stderr)
			if err != nil {
				return err
			}

			slog.SetDefault(slog.New(h))

			return nil
		},
	}

	a.log.RegisterFlags(rootCmd.PersistentFlags())
	a.settings.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		a.newListCmd(),
		a.newEnableCmd(),
		a.newDisableCmd(),
		a.newResetCmd(),
		a.newSchemaCmd(),
		a.newDemoCmd(),
		newBenchCmd(),
		newVersionCmd(),
	)

	for _, register := range []func(*cobra.Command) error{
		a.log.RegisterCompletions,
		a.settings.RegisterCompletions,
	} {
		err := register(rootCmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
		}
	}

	return rootCmd
}
