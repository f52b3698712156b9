package nmea

// Kind identifies a sentence by the three characters after the talker id.
type Kind uint8

const (
	KindUnrecognized Kind = iota
	KindGGA
	KindGLL
	KindRMC
	KindZDA
)

func (k Kind) String() string {
	switch k {
	case KindGGA:
		return "GGA"
	case KindGLL:
		return "GLL"
	case KindRMC:
		return "RMC"
	case KindZDA:
		return "ZDA"
	default:
		return "unrecognized"
	}
}

func kindOf(code []byte) Kind {
	switch string(code) {
	case "GGA":
		return KindGGA
	case "GLL":
		return KindGLL
	case "RMC":
		return KindRMC
	case "ZDA":
		return KindZDA
	default:
		return KindUnrecognized
	}
}

// GGA: Global Positioning System Fix Data
//
//	hhmmss.sss,ddmm.mmmm,N,dddmm.mmmm,E,Q,NN,H.H,A.A,M,G.G,M,age,station
//
// Fields after the geoid separation are not decoded.
type GGA struct {
	Clock           Clock
	Latitude        float64
	Longitude       float64
	FixQuality      uint8
	Satellites      uint8
	HDOP            float64
	Altitude        float64
	GeoidSeparation float64
}

func decodeGGA(line []byte, c cursor) (GGA, error) {
	var (
		s   GGA
		n   uint32
		err error
	)
	s.Clock, c = decodeTimeOfDay(line, c)
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	if s.Latitude, c, err = decodeCoordinate(line, c, 'N', 'S'); err != nil {
		return GGA{}, err
	}
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	if s.Longitude, c, err = decodeCoordinate(line, c, 'E', 'W'); err != nil {
		return GGA{}, err
	}
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	n, c = decodeInteger(line, c)
	s.FixQuality = uint8(n)
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	n, c = decodeInteger(line, c)
	s.Satellites = uint8(n)
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	s.HDOP, c = decodeFixedPoint(line, c)
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	s.Altitude, c = decodeFixedPoint(line, c)
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	unit, ok, c := decodeChar(line, c)
	if ok && unit != 'M' {
		return GGA{}, ErrUnits
	}
	if c, err = expectSeparator(line, c); err != nil {
		return GGA{}, err
	}
	s.GeoidSeparation, c = decodeFixedPoint(line, c)
	c = skipToChecksum(line, c)
	if err := verifyChecksum(line, c); err != nil {
		return GGA{}, err
	}
	return s, nil
}

func (s GGA) commit(snap *Snapshot) {
	snap.Position = PositionFix{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Altitude:  s.Altitude,
		Valid:     s.FixQuality > 0,
	}
	snap.Satellites = s.Satellites
	snap.TimeOfDay.Clock = s.Clock
}

// GLL: Geographic Position - Latitude/Longitude
//
//	ddmm.mmmm,N,dddmm.mmmm,E,hhmmss.sss,A,mode
type GLL struct {
	Latitude  float64
	Longitude float64
	Clock     Clock
	Valid     bool
}

func decodeGLL(line []byte, c cursor) (GLL, error) {
	var (
		s   GLL
		err error
	)
	if s.Latitude, c, err = decodeCoordinate(line, c, 'N', 'S'); err != nil {
		return GLL{}, err
	}
	if c, err = expectSeparator(line, c); err != nil {
		return GLL{}, err
	}
	if s.Longitude, c, err = decodeCoordinate(line, c, 'E', 'W'); err != nil {
		return GLL{}, err
	}
	if c, err = expectSeparator(line, c); err != nil {
		return GLL{}, err
	}
	s.Clock, c = decodeTimeOfDay(line, c)
	if c, err = expectSeparator(line, c); err != nil {
		return GLL{}, err
	}
	if s.Valid, c, err = decodeStatus(line, c); err != nil {
		return GLL{}, err
	}
	c = skipToChecksum(line, c)
	if err := verifyChecksum(line, c); err != nil {
		return GLL{}, err
	}
	return s, nil
}

func (s GLL) commit(snap *Snapshot) {
	snap.Position.Latitude = s.Latitude
	snap.Position.Longitude = s.Longitude
	snap.Position.Valid = s.Valid
	snap.TimeOfDay.Clock = s.Clock
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	hhmmss.sss,A,ddmm.mmmm,N,dddmm.mmmm,E,knots,course,ddmmyy,var,E,mode
//
// Only time, status and position are decoded.
type RMC struct {
	Clock     Clock
	Valid     bool
	Latitude  float64
	Longitude float64
}

func decodeRMC(line []byte, c cursor) (RMC, error) {
	var (
		s   RMC
		err error
	)
	s.Clock, c = decodeTimeOfDay(line, c)
	if c, err = expectSeparator(line, c); err != nil {
		return RMC{}, err
	}
	if s.Valid, c, err = decodeStatus(line, c); err != nil {
		return RMC{}, err
	}
	if c, err = expectSeparator(line, c); err != nil {
		return RMC{}, err
	}
	if s.Latitude, c, err = decodeCoordinate(line, c, 'N', 'S'); err != nil {
		return RMC{}, err
	}
	if c, err = expectSeparator(line, c); err != nil {
		return RMC{}, err
	}
	if s.Longitude, c, err = decodeCoordinate(line, c, 'E', 'W'); err != nil {
		return RMC{}, err
	}
	c = skipToChecksum(line, c)
	if err := verifyChecksum(line, c); err != nil {
		return RMC{}, err
	}
	return s, nil
}

func (s RMC) commit(snap *Snapshot) {
	snap.Position.Latitude = s.Latitude
	snap.Position.Longitude = s.Longitude
	snap.Position.Valid = s.Valid
	snap.TimeOfDay.Clock = s.Clock
}

// ZDA: Time & Date
//
//	hhmmss.sss,dd,mm,yyyy,zh,zm
//
// Every field is positional; empty ones decode to zero. The local zone is
// kept for reference only, the time itself is always UTC.
type ZDA struct {
	Clock      Clock
	Day        uint8
	Month      uint8
	Year       uint16
	ZoneHour   uint8
	ZoneMinute uint8
}

func decodeZDA(line []byte, c cursor) (ZDA, error) {
	var (
		s   ZDA
		n   uint32
		err error
	)
	s.Clock, c = decodeTimeOfDay(line, c)
	if c, err = expectSeparator(line, c); err != nil {
		return ZDA{}, err
	}
	n, c = decodeInteger(line, c)
	s.Day = uint8(n)
	if c, err = expectSeparator(line, c); err != nil {
		return ZDA{}, err
	}
	n, c = decodeInteger(line, c)
	s.Month = uint8(n)
	if c, err = expectSeparator(line, c); err != nil {
		return ZDA{}, err
	}
	n, c = decodeInteger(line, c)
	s.Year = uint16(n)
	if c, err = expectSeparator(line, c); err != nil {
		return ZDA{}, err
	}
	n, c = decodeInteger(line, c)
	s.ZoneHour = uint8(n)
	if c, err = expectSeparator(line, c); err != nil {
		return ZDA{}, err
	}
	n, c = decodeInteger(line, c)
	s.ZoneMinute = uint8(n)
	if err := verifyChecksum(line, c); err != nil {
		return ZDA{}, err
	}
	return s, nil
}

func (s ZDA) commit(snap *Snapshot) {
	snap.TimeOfDay.Clock = s.Clock
	snap.Date = DateFix{
		Year:       s.Year,
		Month:      s.Month,
		Day:        s.Day,
		ZoneHour:   s.ZoneHour,
		ZoneMinute: s.ZoneMinute,
	}
}
