package channel

// SetExit replaces the function the default fatal handler exits with.
func SetExit(f func(int)) (restore func()) {
	old := exit
	exit = f

	return func() { exit = old }
}
