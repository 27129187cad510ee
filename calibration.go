package timeconv

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// DomainCalibration is the affine map between one sensor's native clock and
// relative time: relative = (native - Offset) * Scale.
type DomainCalibration struct {
	// Offset is the native timestamp at relative time zero, in native ticks.
	Offset float64
	// Scale converts native ticks to seconds. Strictly positive.
	Scale float64
}

// Calibration is the per-recording record parameterizing every conversion.
// It is immutable once validated; conversion functions read it but never
// write it.
type Calibration struct {
	DVS   DomainCalibration
	RS    DomainCalibration
	Lidar DomainCalibration

	// Pairs holds optional piecewise-linear conversion tables for directed
	// domain pairs. When a pair has a table, cross-domain conversion uses it
	// instead of composing through relative time.
	Pairs map[Pair][]Segment
}

// Pair identifies one directed conversion between two native clock domains.
type Pair struct {
	From Domain
	To   Domain
}

func (p Pair) String() string {
	return string(p.From) + "_to_" + string(p.To)
}

// JSON shapes for the per-recording calibration file. Pointer fields
// distinguish a missing field from a zero value.
type calibrationJSON struct {
	DVS   *domainJSON              `json:"dvs"`
	RS    *domainJSON              `json:"rs"`
	Lidar *domainJSON              `json:"lidar"`
	Pairs map[string][]segmentJSON `json:"pairs,omitempty"`
}

type domainJSON struct {
	Offset *float64 `json:"offset"`
	Scale  *float64 `json:"scale"`
}

type segmentJSON struct {
	Interval []*float64 `json:"interval"`
	Inner    bool       `json:"inner"`
	ConvK    *float64   `json:"conv_k"`
	ConvB    *float64   `json:"conv_b"`
}

// LoadCalibration reads and validates the per-recording calibration file.
func LoadCalibration(path string) (*Calibration, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("calibration file must have .json extension, got %q", ext)
	}

	// Calibration files are a few KB; anything larger is not one.
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat calibration file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("calibration file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	return ParseCalibration(data)
}

// ParseCalibration builds a validated Calibration from the JSON content of a
// per-recording calibration file.
func ParseCalibration(data []byte) (*Calibration, error) {
	var raw calibrationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse calibration JSON (%v): %w", err, ErrInvalidCalibration)
	}

	cal := &Calibration{}
	fields := []struct {
		domain Domain
		src    *domainJSON
		dst    *DomainCalibration
	}{
		{DVS, raw.DVS, &cal.DVS},
		{RS, raw.RS, &cal.RS},
		{Lidar, raw.Lidar, &cal.Lidar},
	}
	for _, f := range fields {
		if f.src == nil {
			return nil, fmt.Errorf("missing %q calibration: %w", f.domain, ErrInvalidCalibration)
		}
		if f.src.Offset == nil {
			return nil, fmt.Errorf("%s calibration missing offset: %w", f.domain, ErrInvalidCalibration)
		}
		if f.src.Scale == nil {
			return nil, fmt.Errorf("%s calibration missing scale: %w", f.domain, ErrInvalidCalibration)
		}
		f.dst.Offset = *f.src.Offset
		f.dst.Scale = *f.src.Scale
	}

	if len(raw.Pairs) > 0 {
		cal.Pairs = make(map[Pair][]Segment, len(raw.Pairs))
		for key, rawSegs := range raw.Pairs {
			pair, err := parsePairKey(key)
			if err != nil {
				return nil, err
			}
			segs := make([]Segment, len(rawSegs))
			for i, rs := range rawSegs {
				seg, err := rs.toSegment()
				if err != nil {
					return nil, fmt.Errorf("pair %q segment %d: %w", key, i, err)
				}
				segs[i] = seg
			}
			cal.Pairs[pair] = segs
		}
	}

	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

func parsePairKey(key string) (Pair, error) {
	parts := strings.Split(key, "_to_")
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("bad conversion pair %q: %w", key, ErrInvalidCalibration)
	}
	pair := Pair{From: Domain(parts[0]), To: Domain(parts[1])}
	if !pair.From.Valid() || !pair.To.Valid() || pair.From == pair.To {
		return Pair{}, fmt.Errorf("bad conversion pair %q: %w", key, ErrInvalidCalibration)
	}
	return pair, nil
}

func (s segmentJSON) toSegment() (Segment, error) {
	if s.ConvK == nil || s.ConvB == nil {
		return Segment{}, fmt.Errorf("missing conv_k or conv_b: %w", ErrInvalidCalibration)
	}
	if len(s.Interval) != 2 {
		return Segment{}, fmt.Errorf("interval must have exactly two bounds: %w", ErrInvalidCalibration)
	}
	lower, upper := s.Interval[0], s.Interval[1]
	// The inner flag must agree with the bounds: an inner segment carries
	// both, an open-ended one leaves exactly one null.
	if s.Inner && (lower == nil || upper == nil) {
		return Segment{}, fmt.Errorf("inner segment with open bound: %w", ErrInvalidCalibration)
	}
	if !s.Inner && (lower == nil) == (upper == nil) {
		return Segment{}, fmt.Errorf("open segment must leave exactly one bound null: %w", ErrInvalidCalibration)
	}
	return Segment{Lower: lower, Upper: upper, K: *s.ConvK, B: *s.ConvB}, nil
}

// Validate checks the record against the calibration invariants: all three
// domains with strictly positive finite scales, and well-formed segment
// tables. Errors wrap ErrInvalidCalibration.
func (c *Calibration) Validate() error {
	for _, d := range Domains {
		dc, err := c.domain(d)
		if err != nil {
			return err
		}
		if math.IsNaN(dc.Offset) || math.IsInf(dc.Offset, 0) {
			return fmt.Errorf("%s offset must be finite, got %v: %w", d, dc.Offset, ErrInvalidCalibration)
		}
		if math.IsNaN(dc.Scale) || math.IsInf(dc.Scale, 0) || dc.Scale <= 0 {
			return fmt.Errorf("%s scale must be a positive finite number, got %v: %w", d, dc.Scale, ErrInvalidCalibration)
		}
	}
	for pair, segs := range c.Pairs {
		if !pair.From.Valid() || !pair.To.Valid() || pair.From == pair.To {
			return fmt.Errorf("bad conversion pair %q: %w", pair, ErrInvalidCalibration)
		}
		if len(segs) == 0 {
			return fmt.Errorf("pair %q has an empty segment table: %w", pair, ErrInvalidCalibration)
		}
		for i, seg := range segs {
			if err := seg.validate(); err != nil {
				return fmt.Errorf("pair %q segment %d: %w", pair, i, err)
			}
		}
	}
	return nil
}

func (c *Calibration) domain(d Domain) (DomainCalibration, error) {
	switch d {
	case DVS:
		return c.DVS, nil
	case RS:
		return c.RS, nil
	case Lidar:
		return c.Lidar, nil
	}
	return DomainCalibration{}, fmt.Errorf("unknown sensor domain %q", d)
}

// clone deep-copies the record so an Engine can never observe later caller
// mutation of segment bounds or tables.
func (c *Calibration) clone() *Calibration {
	out := *c
	if c.Pairs != nil {
		out.Pairs = make(map[Pair][]Segment, len(c.Pairs))
		for pair, segs := range c.Pairs {
			cp := make([]Segment, len(segs))
			copy(cp, segs)
			for i := range cp {
				if cp[i].Lower != nil {
					v := *cp[i].Lower
					cp[i].Lower = &v
				}
				if cp[i].Upper != nil {
					v := *cp[i].Upper
					cp[i].Upper = &v
				}
			}
			out.Pairs[pair] = cp
		}
	}
	return &out
}
