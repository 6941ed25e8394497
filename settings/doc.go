// Package settings resolves which log channels are enabled.
//
// Two string entries drive the resolution: the persisted list of channels
// that were enabled on the previous run ([KeyEnabled]) and a one-shot
// override supplied for the current run ([KeyOverride]). Both are
// comma-delimited. Override tokens follow the grammar
//
//	token := ['=' | '+' | '-'] name
//
// A bare name or a '+' prefix enables a channel and a '-' prefix disables a
// previously persisted one ([ModeDelta]). If any token carries a '=' prefix
// the whole override switches to [ModeReset] and replaces the persisted list.
//
// [Resolve] implements the merge as a pure function. [Apply] runs it against
// a [Store], writes the result back and clears the override so it is consumed
// exactly once:
//
//	store := settings.NewOverlay(fileStore, os.Getenv(settings.EnvChannels))
//	res, err := settings.Apply(ctx, store)
//
// Stores are plain key/value sources. [MemoryStore] is useful in tests,
// [FileStore] keeps the entries in a YAML file validated against [Schema],
// and [RedisStore] shares them between hosts.
package settings
