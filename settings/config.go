package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for settings configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	File     string
	Redis    string
	Channels string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config selects the settings source and the per-run override.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewStore] to build the [Store].
type Config struct {
	// File is the YAML settings file. Empty selects [DefaultFilePath].
	File string
	// Redis is a Redis address or redis:// URL. When set it takes
	// precedence over File.
	Redis string
	// Channels is the override for this run. Empty falls back to
	// [EnvChannels].
	Channels string

	Flags Flags
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		File:     "settings-file",
		Redis:    "settings-redis",
		Channels: "log-channels",
	}

	return f.NewConfig()
}

// RegisterFlags adds settings flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.File, c.Flags.File, "", "channel settings file (default: user config dir)")
	flags.StringVar(&c.Redis, c.Flags.Redis, "", "redis address or URL holding channel settings")
	flags.StringVar(&c.Channels, c.Flags.Channels, "",
		fmt.Sprintf("one-shot channel override, e.g. \"net,-ui\" or \"=net\" (env %s)", EnvChannels))
}

// RegisterCompletions registers shell completions for settings flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.File,
		cobra.FixedCompletions([]string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.File, err)
	}

	noFileComp := cobra.FixedCompletions(nil, cobra.ShellCompDirectiveNoFileComp)

	for _, name := range []string{c.Flags.Redis, c.Flags.Channels} {
		err = cmd.RegisterFlagCompletionFunc(name, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", name, err)
		}
	}

	return nil
}

// Override returns the configured override, falling back to [EnvChannels].
func (c *Config) Override() string {
	if c.Channels != "" {
		return c.Channels
	}

	return os.Getenv(EnvChannels)
}

// NewStore builds the configured [Store] with [Config.Override] layered on
// top.
func (c *Config) NewStore() (*Overlay, error) {
	base, err := c.newBaseStore()
	if err != nil {
		return nil, err
	}

	return NewOverlay(base, c.Override()), nil
}

func (c *Config) newBaseStore() (Store, error) {
	if c.Redis != "" {
		opts := &redis.Options{Addr: c.Redis}

		if strings.Contains(c.Redis, "://") {
			var err error

			opts, err = redis.ParseURL(c.Redis)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrStore, err)
			}
		}

		return NewRedisStore(redis.NewClient(opts)), nil
	}

	path := c.File
	if path == "" {
		var err error

		path, err = DefaultFilePath()
		if err != nil {
			return nil, err
		}
	}

	return NewFileStore(path), nil
}
