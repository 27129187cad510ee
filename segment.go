package timeconv

import (
	"fmt"
	"math"
)

// Segment is one piece of a piecewise-linear conversion between two native
// clock domains: inside its interval, to = from*K + B. Intervals are open
// below and closed above; a nil bound leaves that side unbounded.
type Segment struct {
	Lower *float64
	Upper *float64
	K     float64
	B     float64
}

func (s Segment) contains(ts float64) bool {
	if s.Lower != nil && ts <= *s.Lower {
		return false
	}
	if s.Upper != nil && ts > *s.Upper {
		return false
	}
	return true
}

func (s Segment) apply(ts float64) float64 {
	return ts*s.K + s.B
}

func (s Segment) validate() error {
	if s.Lower == nil && s.Upper == nil {
		return fmt.Errorf("segment unbounded on both sides: %w", ErrInvalidCalibration)
	}
	if s.Lower != nil && s.Upper != nil && *s.Lower >= *s.Upper {
		return fmt.Errorf("segment interval (%v, %v] is empty: %w", *s.Lower, *s.Upper, ErrInvalidCalibration)
	}
	// Same invariant as the domain scales: time advances at a positive rate.
	if math.IsNaN(s.K) || math.IsInf(s.K, 0) || s.K <= 0 {
		return fmt.Errorf("segment slope must be a positive finite number, got %v: %w", s.K, ErrInvalidCalibration)
	}
	if math.IsNaN(s.B) || math.IsInf(s.B, 0) {
		return fmt.Errorf("segment intercept must be finite, got %v: %w", s.B, ErrInvalidCalibration)
	}
	return nil
}

// segmentTable applies the first matching segment. The dataset supplies
// segments in interval order, but correctness does not depend on it.
type segmentTable []Segment

func (t segmentTable) convert(ts float64) (float64, error) {
	for _, seg := range t {
		if seg.contains(ts) {
			return seg.apply(ts), nil
		}
	}
	return 0, fmt.Errorf("timestamp %v outside calibrated range: %w", ts, ErrInvalidTimestamp)
}
