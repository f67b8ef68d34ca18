// Package types provides core data types for the membw memory bandwidth benchmark.
// It includes the tier and result structures shared by the engine, runner and
// output packages, along with utility functions for parsing and formatting sizes.
package types

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB uint64 = 1024
	MiB uint64 = 1024 * KiB
	GiB uint64 = 1024 * MiB
	TiB uint64 = 1024 * GiB
)

// Tier is one working-set size under test, usually approximating a cache
// level or main memory.
type Tier struct {
	// Label is the display name (e.g., "L1 Cache").
	Label string `json:"label" yaml:"label"`

	// WorkingSetBytes is the size of each of the two copy buffers.
	WorkingSetBytes uint64 `json:"working_set_bytes" yaml:"working_set_bytes"`

	// Iterations is the number of timed copies. Small tiers use large
	// counts so every tier runs for a comparable wall time.
	Iterations int `json:"iterations" yaml:"iterations"`
}

// TotalBytes returns the number of bytes copied inside the timed window.
func (t Tier) TotalBytes() float64 {
	return float64(t.WorkingSetBytes) * float64(t.Iterations)
}

// HumanSize returns the working set formatted with IEC units.
func (t Tier) HumanSize() string {
	return FormatSize(t.WorkingSetBytes)
}

// TierResult is the outcome of measuring one tier.
type TierResult struct {
	// Tier is the tier that was measured.
	Tier Tier `json:"tier"`

	// BandwidthMBps is the copy bandwidth in MiB per second.
	// It is zero when Err is set.
	BandwidthMBps float64 `json:"bandwidth_mbps"`

	// Elapsed is the length of the timed window.
	Elapsed time.Duration `json:"elapsed"`

	// Iterations is the number of copies actually timed. It differs from
	// Tier.Iterations only when a degenerate timer reading forced a retry.
	Iterations int `json:"iterations"`

	// Err is set when the tier could not be measured.
	Err error `json:"-"`
}

// Measured reports whether the tier produced a bandwidth figure.
func (r TierResult) Measured() bool {
	return r.Err == nil
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It supports the following formats:
//   - Plain bytes: "1024", "0"
//   - With byte suffix: "512B", "512b"
//   - Kilobytes: "64K", "64k", "64KB", "64KiB"
//   - Megabytes: "32M", "32m", "32MB", "32MiB"
//   - Gigabytes: "2G", "2g", "2GB", "2GiB"
//   - Terabytes: "1T", "1t", "1TB", "1TiB"
//
// All units are binary: "64KB" and "64KiB" are both 65536 bytes, which is
// what cache sizes are quoted in.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier uint64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	bytes := value * float64(multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return uint64(bytes), nil
}

// FormatSize converts a size in bytes to a human-readable string.
//
// Examples:
//   - FormatSize(0) returns "0 B"
//   - FormatSize(65536) returns "64 KiB"
//   - FormatSize(32*1024*1024) returns "32 MiB"
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// FormatBandwidth renders a bandwidth rounded to two decimals with thousands
// separators, e.g. "123,456.79 MB/s". The figure matches the %.2f used by
// the plain report.
func FormatBandwidth(mbps float64) string {
	return humanize.FormatFloat("#,###.##", mbps) + " MB/s"
}
