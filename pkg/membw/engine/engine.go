// Package engine measures memory-copy bandwidth for a single working-set size.
//
// A measurement allocates two buffers of the working-set size, fills the
// source with a fixed pattern, performs one untimed warm-up copy, then times
// a fixed number of whole copies from source to destination:
//
//	e := engine.New()
//	m, err := e.Measure(64*1024, 100000)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%.2f MB/s\n", m.BandwidthMBps)
//
// The engine runs on the caller's goroutine and never yields during the
// timed window.
package engine

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/jamesainslie/membw/pkg/membw/logging"
)

const (
	// FillPattern is written to every byte of the source buffer so the
	// copy reads real pages rather than the shared zero page.
	FillPattern byte = 'A'

	// DefaultRetryFactor multiplies the iteration count for the single
	// retry after a zero-length timed window.
	DefaultRetryFactor = 10

	bytesPerMB = 1024 * 1024
)

var logger = logging.Get("engine")

// Clock supplies timestamps for the timed window. The readings must come
// from a monotonic source; time.Now readings carry one.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current time with its monotonic reading.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Measurement is the outcome of one Measure call.
type Measurement struct {
	// BandwidthMBps is MiB copied per second inside the timed window.
	BandwidthMBps float64

	// Elapsed is the length of the timed window.
	Elapsed time.Duration

	// Iterations is the number of copies timed.
	Iterations int

	// Sink is the engine's running sink value after this measurement.
	Sink byte
}

// Option configures an Engine.
type Option func(*Engine)

// WithAllocator sets the buffer allocator.
func WithAllocator(a Allocator) Option {
	return func(e *Engine) {
		e.alloc = a
	}
}

// WithClock sets the clock used for the timed window.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRetryFactor sets the iteration multiplier for the degenerate-timer
// retry. A factor of 1 or less disables the retry.
func WithRetryFactor(f int) Option {
	return func(e *Engine) {
		e.retryFactor = f
	}
}

// WithMaxBytes caps the memory a single measurement may allocate for both
// buffers together. Zero means no cap.
func WithMaxBytes(n uint64) Option {
	return func(e *Engine) {
		e.maxBytes = n
	}
}

// Engine measures copy bandwidth. It is not safe for concurrent use.
type Engine struct {
	alloc       Allocator
	clock       Clock
	retryFactor int
	maxBytes    uint64

	// sink accumulates bytes read back from every destination buffer.
	// It is reported to the user so the copies have an observable effect.
	sink byte
}

// New creates an Engine with the platform allocator and the system clock.
func New(opts ...Option) *Engine {
	e := &Engine{
		alloc:       DefaultAllocator(),
		clock:       SystemClock{},
		retryFactor: DefaultRetryFactor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sink returns the accumulated sink value.
func (e *Engine) Sink() byte {
	return e.sink
}

// Measure times iterations whole copies of workingSetBytes and returns the
// resulting bandwidth. Both buffers are released before Measure returns.
func (e *Engine) Measure(workingSetBytes uint64, iterations int) (Measurement, error) {
	if workingSetBytes == 0 || iterations < 1 {
		return Measurement{}, fmt.Errorf("%w: size=%d iterations=%d", ErrInvalidTier, workingSetBytes, iterations)
	}
	if workingSetBytes > math.MaxInt {
		return Measurement{}, fmt.Errorf("%w: %d bytes exceeds address space", ErrAllocation, workingSetBytes)
	}
	if e.maxBytes > 0 && workingSetBytes > e.maxBytes/2 {
		return Measurement{}, fmt.Errorf("%w: two buffers of %d bytes exceed limit of %d bytes",
			ErrAllocation, workingSetBytes, e.maxBytes)
	}

	n := int(workingSetBytes)

	src, err := e.allocate(n)
	if err != nil {
		return Measurement{}, err
	}
	defer e.release(src)

	dst, err := e.allocate(n)
	if err != nil {
		return Measurement{}, err
	}
	defer e.release(dst)

	fill(src, FillPattern)

	// Warm-up: bring the working set into the cache level under test and
	// fault in every destination page before the clock starts.
	copyBuffer(dst, src)

	elapsed := e.timed(dst, src, iterations)
	if elapsed <= 0 && e.retryFactor > 1 && iterations <= math.MaxInt/e.retryFactor {
		logger.Warn("degenerate timer reading, retrying",
			"size", workingSetBytes,
			"iterations", iterations,
			"retry_iterations", iterations*e.retryFactor)
		iterations *= e.retryFactor
		elapsed = e.timed(dst, src, iterations)
	}

	e.sink += dst[0]
	e.sink += dst[n-1]

	m := Measurement{
		Elapsed:    elapsed,
		Iterations: iterations,
		Sink:       e.sink,
	}

	bw, err := Bandwidth(workingSetBytes, iterations, elapsed)
	if err != nil {
		return m, err
	}
	m.BandwidthMBps = bw

	logger.Debug("measured",
		"size", workingSetBytes,
		"iterations", iterations,
		"elapsed", elapsed,
		"mbps", bw)

	return m, nil
}

// timed runs iterations copies between two clock readings.
func (e *Engine) timed(dst, src []byte, iterations int) time.Duration {
	start := e.clock.Now()
	for i := 0; i < iterations; i++ {
		copyBuffer(dst, src)
	}
	end := e.clock.Now()

	runtime.KeepAlive(src)
	runtime.KeepAlive(dst)

	return end.Sub(start)
}

// allocate obtains an n-byte buffer and rejects short ones.
func (e *Engine) allocate(n int) ([]byte, error) {
	buf, err := e.alloc.Alloc(n)
	if err != nil {
		if errors.Is(err, ErrAllocation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	if len(buf) != n {
		e.release(buf)
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrAllocation, len(buf), n)
	}
	return buf, nil
}

func (e *Engine) release(buf []byte) {
	if err := e.alloc.Free(buf); err != nil {
		logger.Warn("failed to release buffer", "size", len(buf), "err", err)
	}
}

// Bandwidth converts a timed window into MiB per second. A non-positive
// elapsed time is ErrTimerDegenerate, never an infinite bandwidth.
func Bandwidth(workingSetBytes uint64, iterations int, elapsed time.Duration) (float64, error) {
	if elapsed <= 0 {
		return 0, fmt.Errorf("%w: elapsed=%s over %d iterations", ErrTimerDegenerate, elapsed, iterations)
	}
	total := float64(workingSetBytes) * float64(iterations)
	return total / bytesPerMB / elapsed.Seconds(), nil
}

// copyBuffer is kept out of line so the timed loop always performs a real
// call per iteration.
//
//go:noinline
func copyBuffer(dst, src []byte) int {
	return copy(dst, src)
}

func fill(buf []byte, b byte) {
	for i := range buf {
		buf[i] = b
	}
}
