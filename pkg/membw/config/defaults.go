// Package config provides configuration management for the membw benchmark.
package config

import "time"

// Canonical tier set. Smaller working sets get proportionally more
// iterations so each tier runs for a comparable wall time.
const (
	DefaultL1Label      = "L1 Cache"
	DefaultL1Size       = "64KiB"
	DefaultL1Iterations = 100000

	DefaultL2Label      = "L2 Cache"
	DefaultL2Size       = "512KiB"
	DefaultL2Iterations = 50000

	DefaultL3Label      = "L3 Cache"
	DefaultL3Size       = "32MiB"
	DefaultL3Iterations = 10000

	DefaultRAMLabel      = "RAM"
	DefaultRAMSize       = "256MiB"
	DefaultRAMIterations = 1000
)

const (
	// DefaultSettle is the pause between tiers.
	DefaultSettle = 500 * time.Millisecond

	// DefaultScale multiplies every tier's iteration count.
	DefaultScale = 1.0

	// DefaultOutput is the report format.
	DefaultOutput = "pretty"

	// DefaultMaxMemory caps both buffers of one tier. "auto" uses total RAM.
	DefaultMaxMemory = "auto"

	// DefaultLogLevel is the file log level.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the size at which the log file rotates.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxAge is the number of days rotated logs are kept.
	DefaultLogMaxAge = 30

	// DefaultLogMaxBackups is the number of rotated logs kept.
	DefaultLogMaxBackups = 5
)

// DefaultTiers returns the canonical tier set in report order.
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Label: DefaultL1Label, Size: DefaultL1Size, Iterations: DefaultL1Iterations},
		{Label: DefaultL2Label, Size: DefaultL2Size, Iterations: DefaultL2Iterations},
		{Label: DefaultL3Label, Size: DefaultL3Size, Iterations: DefaultL3Iterations},
		{Label: DefaultRAMLabel, Size: DefaultRAMSize, Iterations: DefaultRAMIterations},
	}
}
