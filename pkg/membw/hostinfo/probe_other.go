//go:build !linux && !darwin && !windows

package hostinfo

// Default returns the probe for the current platform. Platforms without a
// dedicated probe report UnknownCPU and 0 MB.
func Default() Probe {
	return fallbackProbe{}
}
