package timeconv

import "sync/atomic"

// Value is a timestamp argument: a single scalar, or a slice converted
// element-wise with identical semantics.
type Value interface {
	float64 | []float64
}

// defaultEngine backs the package-level conversion functions. Load* builds
// and validates the replacement engine fully before the single pointer swap,
// so concurrent converters see either the old record or the new one, never a
// mix.
var defaultEngine atomic.Pointer[Engine]

// Load reads the per-recording calibration file and installs it as the
// process-wide record used by the package-level conversion functions.
func Load(path string) error {
	eng, err := NewEngineFromFile(path)
	if err != nil {
		return err
	}
	defaultEngine.Store(eng)
	return nil
}

// LoadJSON installs a calibration parsed from raw JSON bytes.
func LoadJSON(data []byte) error {
	cal, err := ParseCalibration(data)
	if err != nil {
		return err
	}
	return LoadData(cal)
}

// LoadData installs an already-parsed calibration record.
func LoadData(cal *Calibration) error {
	eng, err := NewEngine(cal)
	if err != nil {
		return err
	}
	defaultEngine.Store(eng)
	return nil
}

// Reset clears the process-wide record. Subsequent package-level conversions
// fail with ErrCalibrationNotLoaded until a Load* call succeeds.
func Reset() {
	defaultEngine.Store(nil)
}

// Default returns the engine installed by the last successful Load* call.
func Default() (*Engine, error) {
	eng := defaultEngine.Load()
	if eng == nil {
		return nil, ErrCalibrationNotLoaded
	}
	return eng, nil
}

// ConvertWith translates native timestamp(s) between two sensor domains
// using an explicit engine. The output has the shape of the input: scalar in,
// scalar out; slice in, newly allocated slice of the same length out.
func ConvertWith[T Value](eng *Engine, from, to Domain, ts T) (T, error) {
	var zero T
	switch v := any(ts).(type) {
	case float64:
		out, err := eng.Convert(from, to, v)
		if err != nil {
			return zero, err
		}
		return any(out).(T), nil
	default:
		// The Value constraint admits exactly one other type.
		out, err := eng.ConvertSeries(from, to, v.([]float64))
		if err != nil {
			return zero, err
		}
		return any(out).(T), nil
	}
}

// Convert translates native timestamp(s) between two sensor domains using
// the process-wide record.
func Convert[T Value](from, to Domain, ts T) (T, error) {
	eng, err := Default()
	if err != nil {
		var zero T
		return zero, err
	}
	return ConvertWith(eng, from, to, ts)
}

// NativeToRelative converts one native timestamp of domain d to relative
// seconds using the process-wide record.
func NativeToRelative(d Domain, ts float64) (float64, error) {
	eng, err := Default()
	if err != nil {
		return 0, err
	}
	return eng.NativeToRelative(d, ts)
}

// RelativeToNative converts relative seconds to a native timestamp of domain
// d using the process-wide record.
func RelativeToNative(d Domain, ts float64) (float64, error) {
	eng, err := Default()
	if err != nil {
		return 0, err
	}
	return eng.RelativeToNative(d, ts)
}

// Named conversions between sensor domains, mirroring the per-recording
// calibration file's pair naming. Each accepts a scalar or a slice.

// ConvertRSToDVS converts Realsense native timestamp(s) to DVS native timestamp(s).
func ConvertRSToDVS[T Value](ts T) (T, error) { return Convert(RS, DVS, ts) }

// ConvertDVSToRS converts DVS native timestamp(s) to Realsense native timestamp(s).
func ConvertDVSToRS[T Value](ts T) (T, error) { return Convert(DVS, RS, ts) }

// ConvertLidarToDVS converts lidar native timestamp(s) to DVS native timestamp(s).
func ConvertLidarToDVS[T Value](ts T) (T, error) { return Convert(Lidar, DVS, ts) }

// ConvertDVSToLidar converts DVS native timestamp(s) to lidar native timestamp(s).
func ConvertDVSToLidar[T Value](ts T) (T, error) { return Convert(DVS, Lidar, ts) }

// ConvertRSToLidar converts Realsense native timestamp(s) to lidar native timestamp(s).
func ConvertRSToLidar[T Value](ts T) (T, error) { return Convert(RS, Lidar, ts) }

// ConvertLidarToRS converts lidar native timestamp(s) to Realsense native timestamp(s).
func ConvertLidarToRS[T Value](ts T) (T, error) { return Convert(Lidar, RS, ts) }

// Per-domain native/relative conversions on the process-wide record.

// DVSNativeToRelative converts a DVS native timestamp to relative seconds.
func DVSNativeToRelative(ts float64) (float64, error) { return NativeToRelative(DVS, ts) }

// DVSRelativeToNative converts relative seconds to a DVS native timestamp.
func DVSRelativeToNative(ts float64) (float64, error) { return RelativeToNative(DVS, ts) }

// RSNativeToRelative converts a Realsense native timestamp to relative seconds.
func RSNativeToRelative(ts float64) (float64, error) { return NativeToRelative(RS, ts) }

// RSRelativeToNative converts relative seconds to a Realsense native timestamp.
func RSRelativeToNative(ts float64) (float64, error) { return RelativeToNative(RS, ts) }

// LidarNativeToRelative converts a lidar native timestamp to relative seconds.
func LidarNativeToRelative(ts float64) (float64, error) { return NativeToRelative(Lidar, ts) }

// LidarRelativeToNative converts relative seconds to a lidar native timestamp.
func LidarRelativeToNative(ts float64) (float64, error) { return RelativeToNative(Lidar, ts) }
