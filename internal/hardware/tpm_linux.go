//go:build linux

// Platform TPM provider for Linux, used by TPMEntropySource.
// Uses /dev/tpmrm0 (TPM Resource Manager) or /dev/tpm0 (direct access).
package hardware

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
)

// tpmDevicePaths lists candidate TPM device nodes in order of preference.
var tpmDevicePaths = []string{
	"/dev/tpmrm0",
	"/dev/tpm0",
}

// maxGetRandomAttempts bounds the retry loop when the TPM returns fewer
// bytes than requested.
const maxGetRandomAttempts = 16

// LinuxTPMProvider implements TPMProvider over a real TPM 2.0 device.
type LinuxTPMProvider struct {
	mu         sync.Mutex
	devicePath string
	transport  transport.TPM
	open       bool
}

// NewLinuxTPMProvider probes the known TPM device paths and returns a
// provider bound to the first one that is accessible. If none are, the
// returned provider's Available() reports false.
func NewLinuxTPMProvider() *LinuxTPMProvider {
	for _, path := range tpmDevicePaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			continue
		}
		f.Close()
		return &LinuxTPMProvider{devicePath: path}
	}
	return &LinuxTPMProvider{}
}

// Available reports whether a TPM device node is present.
func (p *LinuxTPMProvider) Available() bool {
	if p.devicePath == "" {
		return false
	}
	_, err := os.Stat(p.devicePath)
	return err == nil
}

func (p *LinuxTPMProvider) ensureOpen() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return nil
	}

	tpmTransport, err := transport.OpenTPM(p.devicePath)
	if err != nil {
		return fmt.Errorf("hardware: failed to open %s: %w", p.devicePath, err)
	}
	p.transport = tpmTransport
	p.open = true
	return nil
}

// GetRandom returns size bytes from the TPM's hardware RNG, issuing
// TPM2_GetRandom repeatedly since a single command may return fewer
// bytes than requested.
func (p *LinuxTPMProvider) GetRandom(size int) ([]byte, error) {
	if !p.Available() {
		return nil, ErrHardwareUnavailable
	}
	if err := p.ensureOpen(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, size)
	for attempt := 0; len(out) < size && attempt < maxGetRandomAttempts; attempt++ {
		want := size - len(out)
		if want > 32 {
			want = 32
		}

		cmd := tpm2.GetRandom{BytesRequested: uint16(want)}
		rsp, err := cmd.Execute(p.transport)
		if err != nil {
			return nil, fmt.Errorf("hardware: TPM2_GetRandom failed: %w", err)
		}
		out = append(out, rsp.RandomBytes.Buffer...)
	}

	if len(out) < size {
		return nil, fmt.Errorf("hardware: TPM returned %d of %d requested bytes", len(out), size)
	}
	return out[:size], nil
}
