package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesainslie/membw/pkg/membw/logging"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

var logger = logging.Get("runner")

// Summary is the outcome of a full run.
type Summary struct {
	// Results holds one entry per tier that was attempted, in tier order.
	Results []types.TierResult `json:"results"`

	// Score is the arithmetic mean bandwidth of the measured tiers in MB/s,
	// or zero when no tier was measured.
	Score float64 `json:"score_mbps"`

	// Measured is the number of tiers that produced a bandwidth.
	Measured int `json:"measured"`

	// Sink is the engine's sink value at the end of the run.
	Sink byte `json:"sink"`

	// Interrupted is set when the context was cancelled before every tier ran.
	Interrupted bool `json:"interrupted"`
}

// Skipped returns the tiers from tiers that have no entry in Results.
func (s Summary) Skipped(tiers []types.Tier) []types.Tier {
	if len(s.Results) >= len(tiers) {
		return nil
	}
	return tiers[len(s.Results):]
}

// Runner measures tiers one after another on the calling goroutine.
type Runner struct {
	measurer Measurer
	opts     Options
}

// New creates a Runner. Options are validated and defaults applied.
func New(m Measurer, opts Options) *Runner {
	opts.Validate()
	return &Runner{measurer: m, opts: opts}
}

// Run measures every tier in order. A tier that fails is recorded as
// unmeasured and the run continues. Cancellation is observed only between
// tiers and during the settle pause, never inside a measurement.
func (r *Runner) Run(ctx context.Context, tiers []types.Tier) Summary {
	summary := Summary{Results: make([]types.TierResult, 0, len(tiers))}

	for i, tier := range tiers {
		if ctx.Err() != nil {
			summary.Interrupted = true
			logger.Warn("run interrupted", "completed", i, "remaining", len(tiers)-i)
			break
		}

		result := r.measure(tier, &summary)
		summary.Results = append(summary.Results, result)
		if r.opts.OnResult != nil {
			r.opts.OnResult(result)
		}

		if i == len(tiers)-1 || r.opts.Settle == 0 {
			continue
		}
		if err := r.opts.Sleep(ctx, r.opts.Settle); err != nil {
			summary.Interrupted = true
			logger.Warn("run interrupted during settle", "completed", i+1, "remaining", len(tiers)-i-1)
			break
		}
	}

	bandwidths := make([]float64, 0, len(summary.Results))
	for _, res := range summary.Results {
		if res.Measured() {
			bandwidths = append(bandwidths, res.BandwidthMBps)
		}
	}
	summary.Measured = len(bandwidths)
	summary.Score = Mean(bandwidths)

	logger.Info("run complete",
		"tiers", len(tiers),
		"measured", summary.Measured,
		"score_mbps", summary.Score,
		"interrupted", summary.Interrupted)

	return summary
}

// measure runs one tier and converts the engine outcome into a TierResult.
func (r *Runner) measure(tier types.Tier, summary *Summary) types.TierResult {
	logger.Debug("measuring tier",
		"label", tier.Label,
		"size", tier.WorkingSetBytes,
		"iterations", tier.Iterations)

	start := time.Now()
	m, err := r.measurer.Measure(tier.WorkingSetBytes, tier.Iterations)
	if m.Iterations > 0 {
		// The copies ran, so the sink advanced even if the timer failed.
		summary.Sink = m.Sink
	}

	result := types.TierResult{
		Tier:       tier,
		Elapsed:    m.Elapsed,
		Iterations: m.Iterations,
	}
	if result.Iterations == 0 {
		result.Iterations = tier.Iterations
	}

	if err != nil {
		result.Err = fmt.Errorf("%s: %w", tier.Label, err)
		logger.Error("tier unmeasured", "label", tier.Label, "err", err, "wall", time.Since(start))
		return result
	}

	result.BandwidthMBps = m.BandwidthMBps
	return result
}

// Mean returns the arithmetic mean of values, or zero for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
