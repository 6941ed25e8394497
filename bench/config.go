package bench

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for benchmark configuration, allowing callers
// to customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Calls        string
	Goroutines   string
	Toggles      string
	CPUProfile   string
	HeapProfile  string
	MutexProfile string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:      f,
		Calls:      DefaultCalls,
		Goroutines: DefaultGoroutines,
		Toggles:    DefaultToggles,
	}
}

// Defaults used by [NewConfig].
const (
	DefaultCalls      = 100_000
	DefaultGoroutines = 4
	DefaultToggles    = 100
)

// Config holds benchmark parameters and profile output paths. Empty paths
// disable the corresponding profile.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags].
type Config struct {
	Flags Flags

	// Calls is the number of log calls made by each goroutine.
	Calls int
	// Goroutines is the number of goroutines logging concurrently.
	Goroutines int
	// Toggles is the number of times the channel state is flipped during the
	// run. Zero leaves the channel enabled throughout.
	Toggles int

	CPUProfile   string
	HeapProfile  string
	MutexProfile string
}

// NewConfig returns a [Config] with default flag names and parameters.
func NewConfig() *Config {
	f := Flags{
		Calls:        "calls",
		Goroutines:   "goroutines",
		Toggles:      "toggles",
		CPUProfile:   "cpu-profile",
		HeapProfile:  "heap-profile",
		MutexProfile: "mutex-profile",
	}

	return f.NewConfig()
}

// RegisterFlags adds benchmark flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.IntVar(&c.Calls, c.Flags.Calls, c.Calls, "log calls per goroutine")
	flags.IntVar(&c.Goroutines, c.Flags.Goroutines, c.Goroutines, "concurrent logging goroutines")
	flags.IntVar(&c.Toggles, c.Flags.Toggles, c.Toggles, "channel state changes during the run")
	flags.StringVar(&c.CPUProfile, c.Flags.CPUProfile, "", "write CPU profile to file")
	flags.StringVar(&c.HeapProfile, c.Flags.HeapProfile, "", "write heap profile to file")
	flags.StringVar(&c.MutexProfile, c.Flags.MutexProfile, "", "write mutex profile to file")
}

// RegisterCompletions registers shell completions for benchmark flags on
// cmd. Integer flags disable file completion; path flags use default file
// completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	noFileComp := cobra.FixedCompletions(nil, cobra.ShellCompDirectiveNoFileComp)

	for _, name := range []string{c.Flags.Calls, c.Flags.Goroutines, c.Flags.Toggles} {
		err := cmd.RegisterFlagCompletionFunc(name, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", name, err)
		}
	}

	return nil
}
