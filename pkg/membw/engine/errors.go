package engine

import "errors"

// ErrAllocation indicates the copy buffers could not be obtained at the
// requested size. The tier is unmeasured rather than run undersized.
var ErrAllocation = errors.New("buffer allocation failed")

// ErrTimerDegenerate indicates the timed window measured zero or negative
// elapsed time, even after the retry with more iterations.
var ErrTimerDegenerate = errors.New("timer reported no elapsed time")

// ErrInvalidTier indicates a zero working set or fewer than one iteration.
var ErrInvalidTier = errors.New("invalid tier parameters")
