// Package output provides formatters for displaying membw benchmark reports
// in various output formats (pretty, plain, json, yaml, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("plain")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/membw/pkg/membw/hostinfo"
	"github.com/jamesainslie/membw/pkg/membw/logging"
	"github.com/jamesainslie/membw/pkg/membw/runner"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

// logger is the package-level logger for output operations.
var logger = logging.Get("output")

// ErrUnknownFormat indicates that no formatter is registered under a name.
var ErrUnknownFormat = errors.New("unknown output format")

// skippedReason is the unmeasured reason for tiers an interrupted run never reached.
const skippedReason = "interrupted before measurement"

// TierReport is one tier's row in a report.
type TierReport struct {
	// Label is the tier's display name (e.g., "L1 Cache").
	Label string

	// WorkingSetBytes is the size of each copy buffer.
	WorkingSetBytes uint64

	// SizeHuman is the working set in IEC units (e.g., "64 KiB").
	SizeHuman string

	// Iterations is the number of copies timed.
	Iterations int

	// BandwidthMBps is the measured bandwidth, zero when unmeasured.
	BandwidthMBps float64

	// Elapsed is the length of the timed window.
	Elapsed time.Duration

	// Measured reports whether the tier produced a bandwidth.
	Measured bool

	// Reason explains why an unmeasured tier has no bandwidth.
	Reason string
}

// Report contains the complete output data for formatting.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is the wall time of the whole run, settle pauses included.
	Duration time.Duration

	// Host describes the machine the run measured.
	Host hostinfo.HostInfo

	// Tiers has one row per requested tier in report order.
	Tiers []TierReport

	// Score is the mean bandwidth of the measured tiers.
	Score float64

	// Measured is the number of tiers that produced a bandwidth.
	Measured int

	// Sink is the accumulated byte read back from the copy destinations.
	Sink byte

	// Interrupted indicates the run was cancelled before every tier ran.
	Interrupted bool

	// Warnings contains any warning messages generated during the run.
	Warnings []string
}

// NewReport assembles a report from a run summary. Tiers the summary has no
// result for are listed as unmeasured.
func NewReport(host hostinfo.HostInfo, tiers []types.Tier, s runner.Summary, startedAt time.Time, duration time.Duration) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		StartedAt:   startedAt,
		Duration:    duration,
		Host:        host,
		Tiers:       make([]TierReport, 0, len(tiers)),
		Score:       s.Score,
		Measured:    s.Measured,
		Sink:        s.Sink,
		Interrupted: s.Interrupted,
	}

	for _, res := range s.Results {
		row := NewTierReport(res)
		r.Tiers = append(r.Tiers, row)
		if !row.Measured {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s unmeasured: %s", row.Label, row.Reason))
		}
	}

	for _, t := range s.Skipped(tiers) {
		r.Tiers = append(r.Tiers, TierReport{
			Label:           t.Label,
			WorkingSetBytes: t.WorkingSetBytes,
			SizeHuman:       t.HumanSize(),
			Iterations:      t.Iterations,
			Reason:          skippedReason,
		})
	}
	if r.Interrupted {
		r.Warnings = append(r.Warnings, "Run interrupted by user")
	}

	return r
}

// NewTierReport converts a single tier result into a report row.
func NewTierReport(res types.TierResult) TierReport {
	row := TierReport{
		Label:           res.Tier.Label,
		WorkingSetBytes: res.Tier.WorkingSetBytes,
		SizeHuman:       res.Tier.HumanSize(),
		Iterations:      res.Iterations,
		BandwidthMBps:   res.BandwidthMBps,
		Elapsed:         res.Elapsed,
		Measured:        res.Measured(),
	}
	if res.Err != nil {
		row.BandwidthMBps = 0
		row.Reason = res.Err.Error()
	}
	return row
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted report to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any existing
// formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		logger.Debug("formatter lookup failed", "name", name)
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
