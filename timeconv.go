// Package timeconv converts sensor timestamps within one multi-sensor
// recording between each sensor's native clock domain and a shared relative
// time axis (seconds since a common zero).
//
// Three sensor families are supported: the DVS event camera (microsecond
// ticks), the Realsense frame camera (millisecond ticks) and the lidar
// (nanosecond ticks). Each recording ships a calibration file describing the
// affine map between every native clock and relative time; all conversions
// are derived from that one record.
package timeconv

// Domain identifies one of the three sensor clock domains in a recording.
type Domain string

const (
	// DVS is the event camera domain. Native timestamps are microseconds.
	DVS Domain = "dvs"
	// RS is the Realsense frame camera domain. Native timestamps are milliseconds.
	RS Domain = "rs"
	// Lidar is the ranging sensor domain. Native timestamps are nanoseconds.
	Lidar Domain = "lidar"
)

// Native tick units per domain.
const (
	Microseconds = "us"
	Milliseconds = "ms"
	Nanoseconds  = "ns"
)

// Domains lists every sensor domain, in calibration-file order.
var Domains = []Domain{DVS, RS, Lidar}

// Valid reports whether d is one of the known sensor domains.
func (d Domain) Valid() bool {
	switch d {
	case DVS, RS, Lidar:
		return true
	}
	return false
}

// Unit returns the native tick unit of the domain, or "" for an unknown domain.
// The unit is fixed by the sensor hardware, not by the calibration file.
func (d Domain) Unit() string {
	switch d {
	case DVS:
		return Microseconds
	case RS:
		return Milliseconds
	case Lidar:
		return Nanoseconds
	}
	return ""
}

func (d Domain) String() string {
	return string(d)
}
