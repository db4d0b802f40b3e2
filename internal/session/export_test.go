package session

// SetProcessAlive replaces the liveness check and returns a restore func.
func SetProcessAlive(f func(pid int) bool) (restore func()) {
	old := processAlive
	processAlive = f
	return func() { processAlive = old }
}
