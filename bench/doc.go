// Package bench measures the cost of logging on channels while their state
// is being toggled.
//
// A run creates one channel on a [channel.Manager] and logs on it from a
// number of goroutines while another goroutine flips the channel on and off
// with [channel.Manager.Update]. The [Report] shows how many calls were made,
// how many values were evaluated and emitted and the cost per call. Disabled
// calls are expected to cost a single atomic load.
//
// Runs can be profiled. [Config] carries CLI flags for a CPU profile taken
// during the run and for heap and mutex snapshots written after it:
//
//	cfg := bench.NewConfig()
//	cfg.RegisterFlags(cmd.Flags())
//
//	report, err := cfg.Run(ctx, manager)
package bench
