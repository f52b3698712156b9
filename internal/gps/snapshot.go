package gps

import (
	"math"
	"time"

	"gpsfix/internal/nmea"
)

// SentenceCounts mirrors nmea.Counters for JSON output.
type SentenceCounts struct {
	Committed  uint64 `json:"committed"`
	Ignored    uint64 `json:"ignored"`
	Rejected   uint64 `json:"rejected"`
	Overflowed uint64 `json:"overflowed"`
}

type Snapshot struct {
	Enabled   bool `json:"enabled"`
	Valid     bool `json:"valid"`
	TimeValid bool `json:"time_valid"`

	Source   string `json:"source,omitempty"`
	GPSDAddr string `json:"gpsd_addr,omitempty"`
	Device   string `json:"device,omitempty"`
	Baud     int    `json:"baud,omitempty"`

	// Position fields are zero unless Valid.
	LatDeg     float64 `json:"lat_deg"`
	LonDeg     float64 `json:"lon_deg"`
	AltM       float64 `json:"alt_m"`
	Satellites int     `json:"satellites"`
	UTCTime    string  `json:"utc,omitempty"`

	LastSentence string         `json:"last_sentence,omitempty"`
	Sentences    SentenceCounts `json:"sentences"`
	// Seq increases with every committed sentence; consumers compare it to
	// detect change.
	Seq uint64 `json:"seq"`

	LastFixUTC string `json:"last_fix_utc,omitempty"`
	LastError  string `json:"last_error,omitempty"`

	Fix     nmea.Snapshot `json:"-"`
	LastFix time.Time     `json:"-"`
}

// FromStatus describes the committed state of st. Session fields (source,
// device, seq, last fix time) are left for the caller.
func FromStatus(st *nmea.Status) Snapshot {
	fix := st.Snapshot()
	c := st.Counters()
	out := Snapshot{
		Enabled:    true,
		Valid:      fix.Position.Valid,
		TimeValid:  fix.TimeOfDay.Valid,
		Satellites: int(fix.Satellites),
		Sentences: SentenceCounts{
			Committed:  c.Committed,
			Ignored:    c.Ignored,
			Rejected:   c.Rejected,
			Overflowed: c.Overflowed,
		},
		Fix: fix,
	}
	if c.Committed+c.Ignored > 0 {
		out.LastSentence = st.LastKind().String()
	}
	if loc, ok := fix.Location(); ok {
		out.LatDeg = loc.Latitude
		out.LonDeg = loc.Longitude
		out.AltM = loc.Altitude
	}
	if t, ok := out.UTC(); ok {
		out.UTCTime = t.Format(time.RFC3339Nano)
	}
	return out
}

// Location returns the position when the last fix-bearing sentence was valid.
func (s Snapshot) Location() (nmea.Location, bool) {
	return s.Fix.Location()
}

// UTC converts the receiver's date and time of day to a time.Time. It fails
// until a sentence carrying a plausible date has been seen.
func (s Snapshot) UTC() (time.Time, bool) {
	dt, ok := s.Fix.Time()
	if !ok {
		return time.Time{}, false
	}
	sec, frac := math.Modf(dt.Second)
	nsec := int(math.Round(frac * 1e9))
	return time.Date(int(dt.Year), time.Month(dt.Month), int(dt.Day),
		int(dt.Hour), int(dt.Minute), int(sec), nsec, time.UTC), true
}

// FixAge reports how long ago a valid position was last committed.
func (s Snapshot) FixAge(now time.Time) (time.Duration, bool) {
	if s.LastFix.IsZero() {
		return 0, false
	}
	d := now.Sub(s.LastFix)
	if d < 0 {
		d = 0
	}
	return d, true
}
