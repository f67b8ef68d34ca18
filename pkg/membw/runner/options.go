// Package runner drives the benchmark across a list of tiers. It measures
// each tier in order, hands every result to a callback as soon as it is
// known, pauses between tiers so the machine can settle, and reduces the
// measured bandwidths to a single score.
package runner

import (
	"context"
	"time"

	"github.com/jamesainslie/membw/pkg/membw/engine"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

// DefaultSettle is the pause between tiers when none is configured.
const DefaultSettle = 500 * time.Millisecond

// Measurer runs one tier. *engine.Engine satisfies it.
type Measurer interface {
	Measure(workingSetBytes uint64, iterations int) (engine.Measurement, error)
}

// Sleeper pauses between tiers. It returns early with ctx.Err() when ctx is
// cancelled.
type Sleeper func(ctx context.Context, d time.Duration) error

// Options configures the runner.
type Options struct {
	// Settle is the pause after each tier except the last.
	// Zero disables it; negative values select DefaultSettle.
	Settle time.Duration

	// OnResult is called after every tier, measured or not, in tier order.
	OnResult func(types.TierResult)

	// Sleep replaces the settle pause, mainly for tests.
	Sleep Sleeper
}

// DefaultOptions returns options with the default settle pause.
func DefaultOptions() Options {
	return Options{
		Settle: DefaultSettle,
		Sleep:  SleepContext,
	}
}

// Validate applies defaults for unset or invalid values.
func (o *Options) Validate() {
	if o.Settle < 0 {
		o.Settle = DefaultSettle
	}
	if o.Sleep == nil {
		o.Sleep = SleepContext
	}
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
