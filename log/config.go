package log

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/logchan/channel"
)

// Flags holds CLI flag names for log configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Level  string
	Format string
	File   string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds CLI flag values for log configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewHandler] to create a [Handler]
// for the application's own logging and [Config.NewChannelHandler] for
// channel output.
type Config struct {
	Level  string
	Format string
	// File, when set, sends channel output to a rotated log file instead of
	// the writer passed to [Config.NewChannelHandler].
	File  string
	Flags Flags
}

// NewConfig returns a new [Config] with zero-value fields.
// Use [Config.RegisterFlags] to add CLI flags, or set values directly.
func NewConfig() *Config {
	f := Flags{
		Level:  "log-level",
		Format: "log-format",
		File:   "log-file",
	}

	return f.NewConfig()
}

// RegisterFlags adds logging flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Level, c.Flags.Level, "info",
		fmt.Sprintf("log level, one of: %s", GetAllLevelStrings()))
	flags.StringVar(&c.Format, c.Flags.Format, "text",
		fmt.Sprintf("log format, one of: %s", GetAllFormatStrings()))
	flags.StringVar(&c.File, c.Flags.File, "", "write channel output to a rotated log file")
}

// RegisterCompletions registers shell completions for log flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Level,
		cobra.FixedCompletions(GetAllLevelStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering log-level completion: %w", err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Format,
		cobra.FixedCompletions(GetAllFormatStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering log-format completion: %w", err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.File,
		cobra.FixedCompletions([]string{"log", "json"}, cobra.ShellCompDirectiveFilterFileExt))
	if err != nil {
		return fmt.Errorf("registering log-file completion: %w", err)
	}

	return nil
}

// NewHandler creates a new [Handler] that writes to w, using the level and
// format strings stored in c. It delegates to [NewHandlerFromStrings].
func (c *Config) NewHandler(w io.Writer) (Handler, error) {
	return NewHandlerFromStrings(w, c.Level, c.Format)
}

// NewChannelHandler creates a [channel.Handler] for channel output. If
// [Config.File] is set the output goes to a [FileHandler] in [FormatJSON],
// which the caller must close; otherwise it goes to a [SlogHandler] writing
// to w in [Config.Format]. Either way channel output is recorded at
// [Config.Level], so every enabled channel produces output whatever the
// level. The returned closer is never nil.
func (c *Config) NewChannelHandler(w io.Writer) (channel.Handler, io.Closer, error) {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if c.File != "" {
		fh := NewFileHandler(FileConfig{Path: c.File, Level: lvl})

		return fh, fh, nil
	}

	h, err := c.NewHandler(w)
	if err != nil {
		return nil, nil, err
	}

	return NewSlogHandler(h, WithLevel(lvl.Slog())), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
