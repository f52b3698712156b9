package nmea

import "github.com/pkg/errors"

var (
	ErrTooShort   = errors.New("nmea: sentence too short")
	ErrSeparator  = errors.New("nmea: missing field separator")
	ErrHemisphere = errors.New("nmea: invalid hemisphere")
	ErrStatus     = errors.New("nmea: invalid status")
	ErrUnits      = errors.New("nmea: invalid altitude units")
	ErrTruncated  = errors.New("nmea: truncated checksum")
	ErrChecksum   = errors.New("nmea: checksum mismatch")
	ErrOverflow   = errors.New("nmea: line buffer overflow")
)
