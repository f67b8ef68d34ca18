//go:build linux

package hostinfo

import (
	"os"

	"golang.org/x/sys/unix"
)

// linuxProbe reads /proc for the CPU model and sysinfo(2) for memory.
type linuxProbe struct {
	cpuInfoPath string
	memInfoPath string
	sysinfo     func(*unix.Sysinfo_t) error
}

// Default returns the probe for the current platform.
func Default() Probe {
	return &linuxProbe{
		cpuInfoPath: "/proc/cpuinfo",
		memInfoPath: "/proc/meminfo",
		sysinfo:     unix.Sysinfo,
	}
}

// CPUName returns the first model string found in /proc/cpuinfo.
func (p *linuxProbe) CPUName() string {
	f, err := os.Open(p.cpuInfoPath)
	if err != nil {
		logger.Debug("cpuinfo unavailable", "path", p.cpuInfoPath, "err", err)
		return UnknownCPU
	}
	defer f.Close()

	if name := parseCPUInfo(f); name != "" {
		return name
	}
	return UnknownCPU
}

// TotalRAMMB uses sysinfo(2) and falls back to MemTotal in /proc/meminfo.
func (p *linuxProbe) TotalRAMMB() uint64 {
	if p.sysinfo != nil {
		var info unix.Sysinfo_t
		if err := p.sysinfo(&info); err == nil && info.Totalram > 0 {
			unit := uint64(info.Unit)
			if unit == 0 {
				unit = 1
			}
			return uint64(info.Totalram) * unit / (1024 * 1024)
		} else if err != nil {
			logger.Debug("sysinfo failed", "err", err)
		}
	}

	f, err := os.Open(p.memInfoPath)
	if err != nil {
		logger.Debug("meminfo unavailable", "path", p.memInfoPath, "err", err)
		return 0
	}
	defer f.Close()

	return parseMemInfo(f)
}
