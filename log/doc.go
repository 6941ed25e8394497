// Package log builds the handlers that channel output is written through.
//
// [NewHandler] creates a [log/slog] handler in one of three formats
// ([FormatJSON], [FormatLogfmt] and [FormatText]) filtered by a [Level]. Use
// [Config] with CLI flag integration via [github.com/spf13/pflag] and shell
// completion support via [github.com/spf13/cobra]:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	handler, err := cfg.NewHandler(os.Stderr)
//	slog.SetDefault(slog.New(handler))
//
// The rest of the package implements [channel.Handler] so that values logged
// on a [channel.Channel] reach an output:
//
//   - [SlogHandler] forwards to any [slog.Handler].
//   - [ConsoleHandler] prints "[subsystem.name] message" lines, colored per
//     subsystem when writing to a terminal.
//   - [ZapHandler] forwards to a [go.uber.org/zap] logger.
//   - [FileHandler] writes JSON lines to a size-rotated file.
//   - [Publisher] fans entries out to in-process subscribers, which is useful
//     for displaying recent output in a UI.
//
// For example:
//
//	console := log.NewConsoleHandler(os.Stderr)
//	netLog := channel.New("myapp.net", channel.WithHandlers(console))
package log
