package timeconv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Engine converts timestamps for a single recording. It owns an immutable
// copy of the recording's Calibration; every method is a pure read, so one
// Engine is safe for concurrent use. Construct one Engine per recording to
// process several recordings without cross-contamination.
type Engine struct {
	cal Calibration
}

// NewEngine builds an Engine from an already-parsed calibration record. The
// record is validated eagerly and copied, so later mutation by the caller
// does not reach the engine.
func NewEngine(cal *Calibration) (*Engine, error) {
	if cal == nil {
		return nil, fmt.Errorf("nil calibration: %w", ErrInvalidCalibration)
	}
	cp := cal.clone()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cal: *cp}, nil
}

// NewEngineFromFile builds an Engine from a per-recording calibration file.
func NewEngineFromFile(path string) (*Engine, error) {
	cal, err := LoadCalibration(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(cal)
}

// NativeToRelative converts one native timestamp of domain d to seconds
// since relative zero.
func (e *Engine) NativeToRelative(d Domain, ts float64) (float64, error) {
	dc, err := e.cal.domain(d)
	if err != nil {
		return 0, err
	}
	if err := checkFinite(ts); err != nil {
		return 0, err
	}
	return (ts - dc.Offset) * dc.Scale, nil
}

// RelativeToNative converts seconds since relative zero to a native
// timestamp of domain d. It is the exact inverse of NativeToRelative.
func (e *Engine) RelativeToNative(d Domain, ts float64) (float64, error) {
	dc, err := e.cal.domain(d)
	if err != nil {
		return 0, err
	}
	if err := checkFinite(ts); err != nil {
		return 0, err
	}
	return ts/dc.Scale + dc.Offset, nil
}

// Convert translates one native timestamp from one sensor domain into
// another, composing through relative time unless the calibration carries a
// piecewise table for the directed pair.
func (e *Engine) Convert(from, to Domain, ts float64) (float64, error) {
	if segs, ok := e.cal.Pairs[Pair{From: from, To: to}]; ok {
		if err := checkFinite(ts); err != nil {
			return 0, err
		}
		out, err := segmentTable(segs).convert(ts)
		if err != nil {
			return 0, fmt.Errorf("%s to %s: %w", from, to, err)
		}
		return out, nil
	}
	rel, err := e.NativeToRelative(from, ts)
	if err != nil {
		return 0, err
	}
	return e.RelativeToNative(to, rel)
}

// ConvertSeries converts a slice of native timestamps element-wise, returning
// a newly allocated slice of the same length and ordering. The input is never
// mutated.
func (e *Engine) ConvertSeries(from, to Domain, ts []float64) ([]float64, error) {
	for i, v := range ts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite timestamp %v at index %d: %w", v, i, ErrInvalidTimestamp)
		}
	}

	out := make([]float64, len(ts))

	if segs, ok := e.cal.Pairs[Pair{From: from, To: to}]; ok {
		table := segmentTable(segs)
		for i, v := range ts {
			converted, err := table.convert(v)
			if err != nil {
				return nil, fmt.Errorf("%s to %s at index %d: %w", from, to, i, err)
			}
			out[i] = converted
		}
		return out, nil
	}

	fromCal, err := e.cal.domain(from)
	if err != nil {
		return nil, err
	}
	toCal, err := e.cal.domain(to)
	if err != nil {
		return nil, err
	}

	// Same composition as the scalar path, vectorized: shift to relative
	// seconds, then shift into the target clock.
	copy(out, ts)
	floats.AddConst(-fromCal.Offset, out)
	floats.Scale(fromCal.Scale, out)
	floats.Scale(1/toCal.Scale, out)
	floats.AddConst(toCal.Offset, out)
	return out, nil
}

func checkFinite(ts float64) error {
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return fmt.Errorf("non-finite timestamp %v: %w", ts, ErrInvalidTimestamp)
	}
	return nil
}
