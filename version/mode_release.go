//go:build release

package version

// Mode is the build mode of the binary, either "debug" or "release".
const Mode = "release"

// Debug reports whether debug-only logging is compiled in. Build with
// -tags release to compile [channel.Channel.Debug] calls out.
const Debug = false
