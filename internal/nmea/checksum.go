package nmea

// checksum is the XOR of every byte between '$' and '*'.
type checksum byte

func (s checksum) fold(b byte) checksum {
	return s ^ checksum(b)
}

const hexDigits = "0123456789ABCDEF"

// verifyChecksum expects "*HH" at the cursor, HH being the uppercase hex of
// the accumulated checksum. Anything after the two digits is ignored.
func verifyChecksum(line []byte, c cursor) error {
	if c.pos+3 > len(line) {
		return ErrTruncated
	}
	if line[c.pos] != '*' {
		return ErrChecksum
	}
	if line[c.pos+1] != hexDigits[c.sum>>4] || line[c.pos+2] != hexDigits[c.sum&0x0F] {
		return ErrChecksum
	}
	return nil
}

// skipToChecksum folds everything up to (not including) the '*' marker.
func skipToChecksum(line []byte, c cursor) cursor {
	for c.pos < len(line) && line[c.pos] != '*' {
		c = c.advance(line)
	}
	return c
}
