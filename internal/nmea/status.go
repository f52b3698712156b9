package nmea

// PositionFix is the last committed position. Hemispheres are already applied.
type PositionFix struct {
	Latitude  float64
	Longitude float64
	Altitude  float64 // meters, GGA only
	Valid     bool
}

// TimeFix is the last committed UTC time of day. Valid is true once a date
// with a plausible year has been seen.
type TimeFix struct {
	Clock
	Valid bool
}

// DateFix is the last committed ZDA date. ZoneHour and ZoneMinute describe
// the receiver's local zone and are not applied to anything.
type DateFix struct {
	Year       uint16
	Month      uint8
	Day        uint8
	ZoneHour   uint8
	ZoneMinute uint8
}

// Snapshot is the committed state of a Status. It is a plain value: copies
// can be handed to other goroutines freely.
type Snapshot struct {
	Position   PositionFix
	TimeOfDay  TimeFix
	Date       DateFix
	Satellites uint8
}

// A zero year means no ZDA yet; receivers also report small bogus years
// before they have almanac data.
const minValidYear = 1000

func (s *Snapshot) refreshTimeValidity() {
	s.TimeOfDay.Valid = s.Date.Year > minValidYear
}

// DateTime is a UTC calendar date and time of day.
type DateTime struct {
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second float64
}

// Location is a valid position in decimal degrees and meters.
type Location struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Time returns the UTC date and time, or false until a date is known.
func (s Snapshot) Time() (DateTime, bool) {
	if !s.TimeOfDay.Valid {
		return DateTime{}, false
	}
	return DateTime{
		Year:   s.Date.Year,
		Month:  s.Date.Month,
		Day:    s.Date.Day,
		Hour:   s.TimeOfDay.Hour,
		Minute: s.TimeOfDay.Minute,
		Second: s.TimeOfDay.Second,
	}, true
}

// Location returns the position, or false if the latest position-bearing
// sentence reported no fix.
func (s Snapshot) Location() (Location, bool) {
	if !s.Position.Valid {
		return Location{}, false
	}
	return Location{
		Latitude:  s.Position.Latitude,
		Longitude: s.Position.Longitude,
		Altitude:  s.Position.Altitude,
	}, true
}

// SatelliteCount returns the last reported number of satellites in use.
func (s Snapshot) SatelliteCount() uint8 {
	return s.Satellites
}

// Counters tallies what the framer has seen.
type Counters struct {
	Committed  uint64 // decoded and committed
	Ignored    uint64 // checksum-valid but not a decoded kind
	Rejected   uint64 // failed structure or checksum
	Overflowed uint64 // dropped for exceeding LineCapacity
}

// Status is the parser state for one receiver session: the sentence being
// framed plus the committed Snapshot. The zero value is ready to use and
// reports no fix.
type Status struct {
	snap     Snapshot
	line     lineBuffer
	err      error
	lastKind Kind
	counters Counters
}

// Snapshot returns a copy of the committed state.
func (s *Status) Snapshot() Snapshot { return s.snap }

func (s *Status) Time() (DateTime, bool) { return s.snap.Time() }

func (s *Status) Location() (Location, bool) { return s.snap.Location() }

func (s *Status) SatelliteCount() uint8 { return s.snap.SatelliteCount() }

// Err reports why the most recent sentence was rejected or dropped. It is
// nil after a sentence is accepted.
func (s *Status) Err() error { return s.err }

// LastKind is the kind of the most recently accepted sentence. Rejected
// sentences leave it unchanged.
func (s *Status) LastKind() Kind { return s.lastKind }

func (s *Status) Counters() Counters { return s.counters }
