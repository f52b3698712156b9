package nmea

const (
	talkerLen = 2
	prefixLen = talkerLen + 3
	// Shortest line worth looking at: prefix plus one more byte.
	minSentenceLen = prefixLen + 1
)

// dispatch decodes one framed line (without '$' and terminator) and, only if
// the whole sentence is valid, commits its fields into snap.
func dispatch(line []byte, snap *Snapshot) (Kind, error) {
	if len(line) < minSentenceLen {
		return KindUnrecognized, ErrTooShort
	}
	var c cursor
	for c.pos < prefixLen {
		c = c.advance(line)
	}
	kind := kindOf(line[talkerLen:prefixLen])
	if kind == KindUnrecognized {
		return kind, verifyChecksum(line, skipToChecksum(line, c))
	}
	c, err := expectSeparator(line, c)
	if err != nil {
		return kind, err
	}

	switch kind {
	case KindGGA:
		s, err := decodeGGA(line, c)
		if err != nil {
			return kind, err
		}
		s.commit(snap)
	case KindGLL:
		s, err := decodeGLL(line, c)
		if err != nil {
			return kind, err
		}
		s.commit(snap)
	case KindRMC:
		s, err := decodeRMC(line, c)
		if err != nil {
			return kind, err
		}
		s.commit(snap)
	case KindZDA:
		s, err := decodeZDA(line, c)
		if err != nil {
			return kind, err
		}
		s.commit(snap)
	}
	snap.refreshTimeValidity()
	return kind, nil
}
