package nmea

import "math"

// cursor is a read position in a line together with the checksum of every
// byte consumed so far. Decoders take a cursor by value and return the
// advanced one.
type cursor struct {
	pos int
	sum checksum
}

func (c cursor) advance(line []byte) cursor {
	return cursor{pos: c.pos + 1, sum: c.sum.fold(line[c.pos])}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Clock is a time of day as carried by a packed hhmmss.sss field.
type Clock struct {
	Hour   uint8
	Minute uint8
	Second float64
}

func decodeDigits(line []byte, c cursor) (uint64, int, cursor) {
	var v uint64
	n := 0
	for c.pos < len(line) && isDigit(line[c.pos]) {
		v = v*10 + uint64(line[c.pos]-'0')
		c = c.advance(line)
		n++
	}
	return v, n, c
}

// decodeInteger reads consecutive decimal digits. An empty or non-numeric
// field decodes to 0 without moving the cursor; it never fails.
func decodeInteger(line []byte, c cursor) (uint32, cursor) {
	v, _, c := decodeDigits(line, c)
	return uint32(v), c
}

// decodeFraction reads an optional '.' followed by digits. The digits are
// read as one integer and scaled once, so 0.487 is 487/1000.
func decodeFraction(line []byte, c cursor) (float64, cursor) {
	if c.pos >= len(line) || line[c.pos] != '.' {
		return 0, c
	}
	c = c.advance(line)
	digits, n, c := decodeDigits(line, c)
	if n == 0 {
		return 0, c
	}
	return float64(digits) / math.Pow10(n), c
}

// decodeFixedPoint reads [-]digits[.digits]. Like decodeInteger it never fails.
func decodeFixedPoint(line []byte, c cursor) (float64, cursor) {
	negative := false
	if c.pos < len(line) && line[c.pos] == '-' {
		negative = true
		c = c.advance(line)
	}
	whole, c := decodeInteger(line, c)
	frac, c := decodeFraction(line, c)
	v := float64(whole) + frac
	if negative {
		v = -v
	}
	return v, c
}

// decodeChar returns the next byte unless the field is empty, i.e. the cursor
// sits on ',' or '*' or the end of the line.
func decodeChar(line []byte, c cursor) (byte, bool, cursor) {
	if c.pos >= len(line) {
		return 0, false, c
	}
	b := line[c.pos]
	if b == ',' || b == '*' {
		return 0, false, c
	}
	return b, true, c.advance(line)
}

// decodeTimeOfDay reads a packed [h]hmmss[.sss] field. Splitting by 100
// handles one- and two-digit hours alike.
func decodeTimeOfDay(line []byte, c cursor) (Clock, cursor) {
	v, c := decodeInteger(line, c)
	sec := v % 100
	v /= 100
	minute := v % 100
	v /= 100
	hour := v % 100
	frac, c := decodeFraction(line, c)
	return Clock{Hour: uint8(hour), Minute: uint8(minute), Second: float64(sec) + frac}, c
}

// decodeAngle reads a packed [d]ddmm[.mmmm] field.
func decodeAngle(line []byte, c cursor) (uint32, float64, cursor) {
	v, c := decodeInteger(line, c)
	frac, c := decodeFraction(line, c)
	return v / 100, float64(v%100) + frac, c
}

func expectSeparator(line []byte, c cursor) (cursor, error) {
	if c.pos >= len(line) {
		return c, ErrSeparator
	}
	b := line[c.pos]
	c = c.advance(line)
	if b != ',' {
		return c, ErrSeparator
	}
	return c, nil
}

// decodeHemisphere reports whether the hemisphere letter negates the
// coordinate. An empty field counts as positive.
func decodeHemisphere(line []byte, c cursor, positive, negative byte) (bool, cursor, error) {
	h, ok, c := decodeChar(line, c)
	switch {
	case !ok, h == positive:
		return false, c, nil
	case h == negative:
		return true, c, nil
	}
	return false, c, ErrHemisphere
}

// decodeCoordinate reads "ddmm.mmmm,H" and returns signed decimal degrees.
func decodeCoordinate(line []byte, c cursor, positive, negative byte) (float64, cursor, error) {
	deg, minutes, c := decodeAngle(line, c)
	c, err := expectSeparator(line, c)
	if err != nil {
		return 0, c, err
	}
	neg, c, err := decodeHemisphere(line, c, positive, negative)
	if err != nil {
		return 0, c, err
	}
	v := float64(deg) + minutes/60
	if neg {
		v = -v
	}
	return v, c, nil
}

// decodeStatus reads an A/V status letter; empty means void.
func decodeStatus(line []byte, c cursor) (bool, cursor, error) {
	s, ok, c := decodeChar(line, c)
	switch {
	case !ok, s == 'V':
		return false, c, nil
	case s == 'A':
		return true, c, nil
	}
	return false, c, ErrStatus
}
