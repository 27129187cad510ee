package timeconv

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalibration() *Calibration {
	return &Calibration{
		DVS:   DomainCalibration{Offset: 1000, Scale: 1e-6},
		RS:    DomainCalibration{Offset: 2000, Scale: 1e-3},
		Lidar: DomainCalibration{Offset: 500, Scale: 1e-9},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(testCalibration())
	require.NoError(t, err)
	return eng
}

// delta for comparing round-tripped values at 1e-9 relative tolerance. The
// absolute floor of 1e-9 ticks absorbs float rounding near zero and is still
// far below one tick in any domain.
func tolerance(v float64) float64 {
	return 1e-9*math.Abs(v) + 1e-9
}

// crossDomainTolerance widens the floor for values that crossed into another
// clock and back: a sub-picosecond rounding error in relative seconds is many
// native ticks in a fine-grained clock, so the floor is one picosecond
// expressed in the origin domain's ticks.
func crossDomainTolerance(v float64, originScale float64) float64 {
	return 1e-9*math.Abs(v) + 1e-12/originScale
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("rejects nil calibration", func(t *testing.T) {
		t.Parallel()
		_, err := NewEngine(nil)
		assert.ErrorIs(t, err, ErrInvalidCalibration)
	})

	t.Run("rejects invalid calibration", func(t *testing.T) {
		t.Parallel()
		cal := testCalibration()
		cal.DVS.Scale = 0
		_, err := NewEngine(cal)
		assert.ErrorIs(t, err, ErrInvalidCalibration)
	})

	t.Run("copies the record", func(t *testing.T) {
		t.Parallel()
		cal := testCalibration()
		eng, err := NewEngine(cal)
		require.NoError(t, err)

		// Mutating the caller's record must not reach the engine.
		cal.DVS.Offset = 0
		rel, err := eng.NativeToRelative(DVS, 1000)
		require.NoError(t, err)
		assert.Equal(t, 0.0, rel)
	})

	t.Run("copies segment tables", func(t *testing.T) {
		t.Parallel()
		upper := 100.0
		cal := testCalibration()
		cal.Pairs = map[Pair][]Segment{
			{From: RS, To: DVS}: {{Upper: &upper, K: 1000, B: -1999000}},
		}
		eng, err := NewEngine(cal)
		require.NoError(t, err)

		upper = -100
		out, err := eng.Convert(RS, DVS, 50)
		require.NoError(t, err)
		assert.Equal(t, 50*1000.0-1999000, out)
	})
}

func TestNativeRelativeScenario(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	rel, err := eng.NativeToRelative(DVS, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rel)

	rel, err = eng.NativeToRelative(DVS, 2000000)
	require.NoError(t, err)
	assert.InDelta(t, 1.999, rel, tolerance(1.999))

	native, err := eng.RelativeToNative(RS, 0)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, native)

	out, err := eng.Convert(DVS, RS, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, out)
}

func TestRoundTripLaw(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	samples := []float64{0, 1, 1000, 123456.789, 2e6, 9.5e9, -500}
	for _, d := range Domains {
		for _, ts := range samples {
			rel, err := eng.NativeToRelative(d, ts)
			require.NoError(t, err)
			back, err := eng.RelativeToNative(d, rel)
			require.NoError(t, err)
			assert.InDelta(t, ts, back, tolerance(ts), "domain %s ts %v", d, ts)
		}
	}
}

func TestCompositionConsistency(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)
	cal := testCalibration()
	scales := map[Domain]float64{
		DVS:   cal.DVS.Scale,
		RS:    cal.RS.Scale,
		Lidar: cal.Lidar.Scale,
	}

	pairs := []Pair{
		{DVS, RS}, {RS, DVS},
		{DVS, Lidar}, {Lidar, DVS},
		{RS, Lidar}, {Lidar, RS},
	}
	samples := []float64{0, 1000, 2e6, 7.25e8}
	for _, p := range pairs {
		for _, ts := range samples {
			there, err := eng.Convert(p.From, p.To, ts)
			require.NoError(t, err)
			back, err := eng.Convert(p.To, p.From, there)
			require.NoError(t, err)
			assert.InDelta(t, ts, back, crossDomainTolerance(ts, scales[p.From]),
				"pair %s ts %v", p, ts)
		}
	}
}

func TestConvertSeries(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	t.Run("preserves shape and ordering", func(t *testing.T) {
		t.Parallel()
		in := []float64{1000, 2000, 500000, 2000000}
		out, err := eng.ConvertSeries(DVS, RS, in)
		require.NoError(t, err)
		require.Len(t, out, len(in))

		want := make([]float64, len(in))
		for i, ts := range in {
			want[i], err = eng.Convert(DVS, RS, ts)
			require.NoError(t, err)
		}
		if diff := cmp.Diff(want, out, cmpopts.EquateApprox(1e-9, 1e-12)); diff != "" {
			t.Errorf("series mismatch (-scalar +series):\n%s", diff)
		}
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		t.Parallel()
		in := []float64{1000, 2000, 3000}
		saved := []float64{1000, 2000, 3000}
		_, err := eng.ConvertSeries(Lidar, DVS, in)
		require.NoError(t, err)
		assert.Equal(t, saved, in)
	})

	t.Run("single element matches scalar", func(t *testing.T) {
		t.Parallel()
		scalar, err := eng.Convert(RS, Lidar, 2500)
		require.NoError(t, err)
		series, err := eng.ConvertSeries(RS, Lidar, []float64{2500})
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.InDelta(t, scalar, series[0], tolerance(scalar))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		out, err := eng.ConvertSeries(DVS, RS, nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestNonFiniteInput(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	bad := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, ts := range bad {
		_, err := eng.NativeToRelative(DVS, ts)
		assert.ErrorIs(t, err, ErrInvalidTimestamp)

		_, err = eng.RelativeToNative(Lidar, ts)
		assert.ErrorIs(t, err, ErrInvalidTimestamp)

		_, err = eng.Convert(RS, DVS, ts)
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	}

	_, err := eng.ConvertSeries(RS, DVS, []float64{1000, math.NaN(), 3000})
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestUnknownDomain(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	_, err := eng.NativeToRelative(Domain("imu"), 1000)
	assert.Error(t, err)

	_, err = eng.Convert(Domain("imu"), DVS, 1000)
	assert.Error(t, err)

	_, err = eng.ConvertSeries(DVS, Domain("imu"), []float64{1000})
	assert.Error(t, err)
}

func TestDomainMetadata(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Microseconds, DVS.Unit())
	assert.Equal(t, Milliseconds, RS.Unit())
	assert.Equal(t, Nanoseconds, Lidar.Unit())
	assert.Equal(t, "", Domain("imu").Unit())

	assert.True(t, DVS.Valid())
	assert.False(t, Domain("imu").Valid())
	assert.Equal(t, "rs_to_dvs", Pair{From: RS, To: DVS}.String())
}
