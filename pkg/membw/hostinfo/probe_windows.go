//go:build windows

package hostinfo

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// processorKey holds the first CPU's description in the registry.
const processorKey = `HARDWARE\DESCRIPTION\System\CentralProcessor\0`

// windowsProbe reads the registry for the CPU name and
// GlobalMemoryStatusEx for memory.
type windowsProbe struct{}

// Default returns the probe for the current platform.
func Default() Probe {
	return windowsProbe{}
}

// CPUName returns the ProcessorNameString registry value.
func (windowsProbe) CPUName() string {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, processorKey, registry.QUERY_VALUE)
	if err != nil {
		logger.Debug("open processor key", "err", err)
		return UnknownCPU
	}
	defer k.Close()

	name, _, err := k.GetStringValue("ProcessorNameString")
	if err != nil {
		logger.Debug("read ProcessorNameString", "err", err)
		return UnknownCPU
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownCPU
	}
	return name
}

// TotalRAMMB returns ullTotalPhys in MiB.
func (windowsProbe) TotalRAMMB() uint64 {
	var status windows.MemoryStatusEx
	status.Length = uint32(unsafe.Sizeof(status))
	if err := windows.GlobalMemoryStatusEx(&status); err != nil {
		logger.Debug("GlobalMemoryStatusEx", "err", err)
		return 0
	}
	return status.TotalPhys / (1024 * 1024)
}
