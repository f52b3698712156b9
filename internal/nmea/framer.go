package nmea

// LineCapacity is the size of the sentence buffer. NMEA limits sentences to
// 82 characters including '$' and CRLF; the rest is headroom for
// proprietary sentences.
const LineCapacity = 128

// lineBuffer holds the sentence being assembled. At most LineCapacity-1
// bytes are ever stored.
type lineBuffer struct {
	buf        [LineCapacity]byte
	n          int
	inSentence bool
}

func (b *lineBuffer) start() {
	b.n = 0
	b.inSentence = true
}

func (b *lineBuffer) abandon() {
	b.n = 0
	b.inSentence = false
}

func (b *lineBuffer) append(c byte) bool {
	if b.n >= len(b.buf)-1 {
		return false
	}
	b.buf[b.n] = c
	b.n++
	return true
}

func (b *lineBuffer) bytes() []byte {
	return b.buf[:b.n]
}

// Feed advances the framer by one byte. It returns true iff c terminated a
// sentence that was checksum-valid and, for a decoded kind, committed.
//
// '$' always starts a new sentence, discarding any partial one. Bytes
// outside a sentence are ignored. A sentence longer than the buffer is
// dropped and framing resumes at the next '$'.
func (s *Status) Feed(c byte) bool {
	switch {
	case c == '$':
		s.line.start()
		return false
	case !s.line.inSentence:
		return false
	case c == '\r' || c == '\n':
		s.line.inSentence = false
		if s.line.n == 0 {
			return false
		}
		return s.complete(s.line.bytes())
	case !s.line.append(c):
		s.line.abandon()
		s.err = ErrOverflow
		s.counters.Overflowed++
		return false
	}
	return false
}

// Write feeds every byte of p. It never fails, so a Status can be the
// destination of io.Copy.
func (s *Status) Write(p []byte) (int, error) {
	for _, c := range p {
		s.Feed(c)
	}
	return len(p), nil
}

func (s *Status) complete(line []byte) bool {
	kind, err := dispatch(line, &s.snap)
	s.err = err
	if err != nil {
		s.counters.Rejected++
		return false
	}
	s.lastKind = kind
	if kind == KindUnrecognized {
		s.counters.Ignored++
	} else {
		s.counters.Committed++
	}
	return true
}
