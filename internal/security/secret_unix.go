//go:build unix

package security

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// lock pins the secret's backing memory to prevent it from being
// swapped to disk. Failure is non-fatal; callers proceed without it.
func (s *Secret) lock() error {
	ptr := unsafe.Pointer(&s.data[0])
	size := uintptr(len(s.data))

	if err := unix.Mlock((*[1 << 30]byte)(ptr)[:size:size]); err != nil {
		return err
	}
	s.locked = true
	return nil
}

func (s *Secret) unlock() {
	ptr := unsafe.Pointer(&s.data[0])
	size := uintptr(len(s.data))
	unix.Munlock((*[1 << 30]byte)(ptr)[:size:size])
	s.locked = false
}
