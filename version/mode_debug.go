//go:build !release

package version

// Mode is the build mode of the binary, either "debug" or "release".
const Mode = "debug"

// Debug reports whether debug-only logging is compiled in.
const Debug = true
