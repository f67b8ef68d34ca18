package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/membw/pkg/membw/engine"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

// fakeMeasurer returns a fixed bandwidth per working-set size and fails the
// sizes listed in fail.
type fakeMeasurer struct {
	bandwidth map[uint64]float64
	fail      map[uint64]error
	calls     []uint64
	sink      byte
}

func (f *fakeMeasurer) Measure(size uint64, iterations int) (engine.Measurement, error) {
	f.calls = append(f.calls, size)
	if err, ok := f.fail[size]; ok {
		return engine.Measurement{}, err
	}
	f.sink += 2
	return engine.Measurement{
		BandwidthMBps: f.bandwidth[size],
		Elapsed:       time.Millisecond,
		Iterations:    iterations,
		Sink:          f.sink,
	}, nil
}

// recordingSleeper counts settle pauses and can cancel a context on the n-th.
type recordingSleeper struct {
	durations []time.Duration
	cancelAt  int
	cancel    context.CancelFunc
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	if s.cancel != nil && len(s.durations) == s.cancelAt {
		s.cancel()
	}
	return ctx.Err()
}

func testTiers() []types.Tier {
	return []types.Tier{
		{Label: "L1 Cache", WorkingSetBytes: 1, Iterations: 10},
		{Label: "L2 Cache", WorkingSetBytes: 2, Iterations: 10},
		{Label: "L3 Cache", WorkingSetBytes: 3, Iterations: 10},
		{Label: "RAM", WorkingSetBytes: 4, Iterations: 10},
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 250.0, Mean([]float64{100, 200, 300, 400}))
	assert.Equal(t, 42.0, Mean([]float64{42}))
	assert.Zero(t, Mean(nil))
}

func TestRun_AllTiersMeasured(t *testing.T) {
	m := &fakeMeasurer{bandwidth: map[uint64]float64{1: 100, 2: 200, 3: 300, 4: 400}}
	sleeper := &recordingSleeper{}

	var seen []string
	r := New(m, Options{
		Settle:   time.Second,
		Sleep:    sleeper.Sleep,
		OnResult: func(res types.TierResult) { seen = append(seen, res.Tier.Label) },
	})

	s := r.Run(context.Background(), testTiers())

	require.Len(t, s.Results, 4)
	assert.Equal(t, 250.0, s.Score)
	assert.Equal(t, 4, s.Measured)
	assert.False(t, s.Interrupted)
	assert.Equal(t, byte(8), s.Sink)
	assert.Equal(t, []string{"L1 Cache", "L2 Cache", "L3 Cache", "RAM"}, seen)
	assert.Equal(t, []uint64{1, 2, 3, 4}, m.calls)
	assert.Equal(t, 10, s.Results[0].Iterations)
}

func TestRun_SettleBetweenTiersOnly(t *testing.T) {
	m := &fakeMeasurer{bandwidth: map[uint64]float64{}}
	sleeper := &recordingSleeper{}

	New(m, Options{Settle: 250 * time.Millisecond, Sleep: sleeper.Sleep}).
		Run(context.Background(), testTiers())

	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond},
		sleeper.durations, "no pause after the last tier")
}

func TestRun_ZeroSettleDisablesPause(t *testing.T) {
	sleeper := &recordingSleeper{}
	New(&fakeMeasurer{}, Options{Settle: 0, Sleep: sleeper.Sleep}).
		Run(context.Background(), testTiers())

	assert.Empty(t, sleeper.durations)
}

func TestRun_FailedTierDoesNotStopLaterTiers(t *testing.T) {
	m := &fakeMeasurer{
		bandwidth: map[uint64]float64{1: 100, 2: 200, 4: 400},
		fail:      map[uint64]error{3: engine.ErrAllocation},
	}

	s := New(m, Options{Sleep: (&recordingSleeper{}).Sleep}).Run(context.Background(), testTiers())

	require.Len(t, s.Results, 4)
	assert.True(t, s.Results[3].Measured(), "RAM tier still runs")

	failed := s.Results[2]
	assert.False(t, failed.Measured())
	assert.ErrorIs(t, failed.Err, engine.ErrAllocation)
	assert.Zero(t, failed.BandwidthMBps)
	assert.Contains(t, failed.Err.Error(), "L3 Cache")

	assert.Equal(t, 3, s.Measured)
	assert.InDelta(t, (100.0+200.0+400.0)/3, s.Score, 1e-9)
	assert.Equal(t, byte(6), s.Sink, "failed allocation leaves the sink untouched")
}

func TestRun_NoTierMeasured(t *testing.T) {
	boom := errors.New("boom")
	m := &fakeMeasurer{fail: map[uint64]error{1: boom, 2: boom, 3: boom, 4: boom}}

	s := New(m, Options{Sleep: (&recordingSleeper{}).Sleep}).Run(context.Background(), testTiers())

	assert.Len(t, s.Results, 4)
	assert.Zero(t, s.Measured)
	assert.Zero(t, s.Score)
}

func TestRun_CancelledDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := &fakeMeasurer{bandwidth: map[uint64]float64{1: 100, 2: 300}}
	sleeper := &recordingSleeper{cancelAt: 2, cancel: cancel}

	s := New(m, Options{Settle: time.Second, Sleep: sleeper.Sleep}).Run(ctx, testTiers())

	assert.True(t, s.Interrupted)
	assert.Len(t, s.Results, 2)
	assert.Equal(t, []uint64{1, 2}, m.calls)
	assert.Equal(t, 200.0, s.Score, "score covers completed tiers")

	skipped := s.Skipped(testTiers())
	require.Len(t, skipped, 2)
	assert.Equal(t, "L3 Cache", skipped[0].Label)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeMeasurer{}
	s := New(m, DefaultOptions()).Run(ctx, testTiers())

	assert.True(t, s.Interrupted)
	assert.Empty(t, s.Results)
	assert.Empty(t, m.calls)
}

func TestRun_EmptyTierList(t *testing.T) {
	s := New(&fakeMeasurer{}, DefaultOptions()).Run(context.Background(), nil)
	assert.Empty(t, s.Results)
	assert.False(t, s.Interrupted)
	assert.Zero(t, s.Score)
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{Settle: -1}
	opts.Validate()
	assert.Equal(t, DefaultSettle, opts.Settle)
	assert.NotNil(t, opts.Sleep)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, SleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := SleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestRun_WithRealEngine(t *testing.T) {
	tiers := []types.Tier{
		{Label: "Small", WorkingSetBytes: 4 * types.KiB, Iterations: 100},
		{Label: "Medium", WorkingSetBytes: 64 * types.KiB, Iterations: 50},
	}

	s := New(engine.New(), Options{Settle: time.Millisecond}).Run(context.Background(), tiers)

	require.Len(t, s.Results, 2)
	for _, res := range s.Results {
		require.NoError(t, res.Err)
		assert.Greater(t, res.BandwidthMBps, 0.0)
	}
	assert.Equal(t, byte(4), s.Sink, "two measurements of 0x41 bytes each wrap to 4")
}
