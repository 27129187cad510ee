package timeconv

import "errors"

// ErrCalibrationNotLoaded is returned when a conversion is attempted before
// any calibration record has been loaded.
var ErrCalibrationNotLoaded = errors.New("no calibration loaded")

// ErrInvalidCalibration is returned when a calibration record is malformed or
// out of range. It is always detected at load time, never deferred to first use.
var ErrInvalidCalibration = errors.New("invalid calibration")

// ErrInvalidTimestamp is returned when a conversion input is non-finite, or
// falls outside the calibrated range of a piecewise conversion table.
var ErrInvalidTimestamp = errors.New("invalid timestamp")
