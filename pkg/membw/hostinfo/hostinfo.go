// Package hostinfo identifies the machine a benchmark runs on. It reports the
// CPU model string and total physical RAM, queried through a platform-specific
// Probe selected at build time, plus a few facts the Go runtime already knows.
//
// Host information is diagnostic only: a probe that cannot read its source
// reports UnknownCPU or zero RAM instead of failing.
package hostinfo

import (
	"runtime"

	"github.com/jamesainslie/membw/pkg/membw/logging"
)

// UnknownCPU is reported when the CPU model string cannot be determined.
const UnknownCPU = "Unknown"

var logger = logging.Get("hostinfo")

// Probe queries platform state for the two host facts the report needs.
// Implementations must not fail: they return UnknownCPU or 0 when the
// underlying source is missing or unreadable.
type Probe interface {
	// CPUName returns the CPU model string.
	CPUName() string

	// TotalRAMMB returns total physical memory in MiB.
	TotalRAMMB() uint64
}

// HostInfo contains the detected host facts.
type HostInfo struct {
	// CPUName is the CPU model string (e.g., "AMD Ryzen 7 5800X 8-Core Processor").
	CPUName string `json:"cpu_name" yaml:"cpu_name"`

	// TotalRAMMB is total physical memory in MiB.
	TotalRAMMB uint64 `json:"total_ram_mb" yaml:"total_ram_mb"`

	// LogicalCPUs is the number of logical CPUs usable by the process.
	LogicalCPUs int `json:"logical_cpus" yaml:"logical_cpus"`

	// OS and Arch are the GOOS/GOARCH of the binary.
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`

	// Features lists SIMD and copy-related CPU features.
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// TotalRAMBytes returns TotalRAMMB in bytes.
func (h HostInfo) TotalRAMBytes() uint64 {
	return h.TotalRAMMB * 1024 * 1024
}

// Detect queries each fact from p exactly once. A probe that panics is
// treated like one that found nothing.
func Detect(p Probe) HostInfo {
	info := HostInfo{
		CPUName:     cpuName(p),
		TotalRAMMB:  totalRAM(p),
		LogicalCPUs: runtime.NumCPU(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Features:    Features(),
	}

	logger.Debug("host detected",
		"cpu", info.CPUName,
		"ram_mb", info.TotalRAMMB,
		"cpus", info.LogicalCPUs)

	return info
}

// cpuName calls p.CPUName, recovering from a panicking probe.
func cpuName(p Probe) (name string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("cpu name probe panicked", "panic", r)
			name = UnknownCPU
		}
	}()

	name = p.CPUName()
	if name == "" {
		name = UnknownCPU
	}
	return name
}

// totalRAM calls p.TotalRAMMB, recovering from a panicking probe.
func totalRAM(p Probe) (mb uint64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("total ram probe panicked", "panic", r)
			mb = 0
		}
	}()

	return p.TotalRAMMB()
}

// fallbackProbe is used on platforms without a dedicated probe.
type fallbackProbe struct{}

func (fallbackProbe) CPUName() string    { return UnknownCPU }
func (fallbackProbe) TotalRAMMB() uint64 { return 0 }
