//go:build darwin

package hostinfo

import (
	"strings"

	"golang.org/x/sys/unix"
)

// darwinProbe reads the CPU brand string and memory size via sysctl.
type darwinProbe struct{}

// Default returns the probe for the current platform.
func Default() Probe {
	return darwinProbe{}
}

// CPUName returns machdep.cpu.brand_string (e.g., "Apple M2 Pro").
func (darwinProbe) CPUName() string {
	brand, err := unix.Sysctl("machdep.cpu.brand_string")
	if err != nil {
		logger.Debug("sysctl machdep.cpu.brand_string", "err", err)
		return UnknownCPU
	}
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return UnknownCPU
	}
	return brand
}

// TotalRAMMB returns hw.memsize in MiB.
func (darwinProbe) TotalRAMMB() uint64 {
	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		logger.Debug("sysctl hw.memsize", "err", err)
		return 0
	}
	return memsize / (1024 * 1024)
}
