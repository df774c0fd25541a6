package physjitter

import "time"

// nowNs returns the current wall-clock time in nanoseconds. Session
// uses it to stamp each Evidence record; HybridEngine and the jitter
// engines below it never read the clock themselves.
func nowNs() uint64 {
	return uint64(time.Now().UnixNano())
}
