//go:build !amd64 && !arm64

package hardware

// readCounterSamples fails on platforms with no known timing counter.
func readCounterSamples(n int) ([]uint64, error) {
	return nil, ErrHardwareUnavailable
}
