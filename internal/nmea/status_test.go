package nmea

import (
	"strings"
	"testing"
)

const (
	ggaScenario = "$GPGGA,161229.487,3723.2475,N,12158.3416,W,1,07,1.0,9.0,M,1.0,M,1,0000*4B\r\n"
	gllMinimal  = "$GNGLL,,,,,,V,N*7A\r\n"
	zdaMinimal  = "$GNZDA,,,,,,*56\r\n"
	zda2023     = "$GNZDA,060618.133,23,02,2023,00,00*40\r\n"
)

// feedAll feeds s byte by byte and returns how many bytes reported success.
func feedAll(st *Status, s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if st.Feed(s[i]) {
			n++
		}
	}
	return n
}

func TestFeed_GGAScenario(t *testing.T) {
	var st Status
	if got := feedAll(&st, ggaScenario); got != 1 {
		t.Fatalf("successful feeds=%d want 1", got)
	}
	snap := st.Snapshot()
	if snap.TimeOfDay.Hour != 16 || snap.TimeOfDay.Minute != 12 || !approx(snap.TimeOfDay.Second, 29.487) {
		t.Fatalf("clock=%+v", snap.TimeOfDay)
	}
	loc, ok := st.Location()
	if !ok {
		t.Fatalf("expected location")
	}
	if !approx(loc.Latitude, 37.387458) || !approx(loc.Longitude, -121.97236) || !approx(loc.Altitude, 9.0) {
		t.Fatalf("location=%+v", loc)
	}
	if st.SatelliteCount() != 7 {
		t.Fatalf("satellites=%d want 7", st.SatelliteCount())
	}
	if _, ok := st.Time(); ok {
		t.Fatalf("time should be invalid without a date")
	}
	if st.LastKind() != KindGGA || st.Err() != nil {
		t.Fatalf("last kind=%v err=%v", st.LastKind(), st.Err())
	}
}

func TestFeed_ReturnsTrueOnlyOnTerminator(t *testing.T) {
	var st Status
	for i := 0; i < len(ggaScenario); i++ {
		got := st.Feed(ggaScenario[i])
		want := ggaScenario[i] == '\r'
		if got != want {
			t.Fatalf("byte %d (%q): Feed=%v want %v", i, ggaScenario[i], got, want)
		}
	}
}

func TestFeed_MinimalGLLInvalidatesFix(t *testing.T) {
	var st Status
	feedAll(&st, ggaScenario)
	if _, ok := st.Location(); !ok {
		t.Fatalf("expected location after GGA")
	}
	if got := feedAll(&st, gllMinimal); got != 1 {
		t.Fatalf("GLL feeds=%d want 1", got)
	}
	if _, ok := st.Location(); ok {
		t.Fatalf("expected no location after void GLL")
	}
	snap := st.Snapshot()
	if snap.Position.Latitude != 0 || snap.Position.Longitude != 0 || snap.Position.Valid {
		t.Fatalf("position=%+v", snap.Position)
	}
}

func TestFeed_MinimalZDA(t *testing.T) {
	var st Status
	if got := feedAll(&st, zdaMinimal); got != 1 {
		t.Fatalf("feeds=%d want 1", got)
	}
	snap := st.Snapshot()
	if snap != (Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
	if _, ok := st.Time(); ok {
		t.Fatalf("year 0 must not validate time")
	}
}

func TestFeed_BadChecksumLeavesSnapshot(t *testing.T) {
	var st Status
	feedAll(&st, zda2023)
	before := st.Snapshot()

	bad := strings.Replace(ggaScenario, "*4B", "*00", 1)
	if got := feedAll(&st, bad); got != 0 {
		t.Fatalf("feeds=%d want 0", got)
	}
	if st.Snapshot() != before {
		t.Fatalf("snapshot changed:\n got %+v\nwant %+v", st.Snapshot(), before)
	}
	if st.Err() != ErrChecksum {
		t.Fatalf("err=%v want %v", st.Err(), ErrChecksum)
	}
	if c := st.Counters(); c.Rejected != 1 || c.Committed != 1 {
		t.Fatalf("counters=%+v", c)
	}
}

func TestFeed_AnyAlteredPayloadByteRejected(t *testing.T) {
	sentences := []string{ggaScenario, gllMinimal, zda2023,
		"$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62\r\n",
		"$GNGGA,121613.000,2455.2122,N,6532.8547,E,1,05,3.3,-1.0,M,0.0,M,,*64\r\n",
	}
	for _, s := range sentences {
		star := strings.IndexByte(s, '*')
		for i := 1; i < star; i++ {
			var st Status
			feedAll(&st, zda2023)
			before := st.Snapshot()

			b := []byte(s)
			b[i] ^= 0x01
			if got := feedAll(&st, string(b)); got != 0 {
				t.Fatalf("%q with byte %d altered: feeds=%d want 0", strings.TrimSpace(s), i, got)
			}
			if st.Snapshot() != before {
				t.Fatalf("%q with byte %d altered changed the snapshot", strings.TrimSpace(s), i)
			}
		}
	}
}

func TestFeed_UnrecognizedKindDoesNotMutate(t *testing.T) {
	var st Status
	feedAll(&st, ggaScenario)
	before := st.Snapshot()

	line := nmeaLine("GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00") + "\r\n"
	if got := feedAll(&st, line); got != 1 {
		t.Fatalf("feeds=%d want 1", got)
	}
	if st.Snapshot() != before {
		t.Fatalf("unrecognized sentence changed snapshot")
	}
	if st.LastKind() != KindUnrecognized {
		t.Fatalf("last kind=%v", st.LastKind())
	}
	if c := st.Counters(); c.Ignored != 1 || c.Committed != 1 {
		t.Fatalf("counters=%+v", c)
	}
}

func TestFeed_RejectedSentenceKeepsLastKind(t *testing.T) {
	var st Status
	feedAll(&st, zda2023)
	feedAll(&st, strings.Replace(ggaScenario, "*4B", "*4C", 1))
	if st.Err() != ErrChecksum {
		t.Fatalf("err=%v want %v", st.Err(), ErrChecksum)
	}
	if st.LastKind() != KindZDA {
		t.Fatalf("last kind=%v want ZDA", st.LastKind())
	}
}

func TestFeed_OverflowResynchronizes(t *testing.T) {
	var st Status
	junk := "$" + strings.Repeat("A", LineCapacity+10)
	if got := feedAll(&st, junk); got != 0 {
		t.Fatalf("junk feeds=%d want 0", got)
	}
	if st.Err() != ErrOverflow {
		t.Fatalf("err=%v want %v", st.Err(), ErrOverflow)
	}
	if st.line.n != 0 || st.line.inSentence {
		t.Fatalf("buffer not abandoned: n=%d in=%v", st.line.n, st.line.inSentence)
	}

	if got := feedAll(&st, gllMinimal); got != 1 {
		t.Fatalf("GLL after overflow feeds=%d want 1", got)
	}
	if st.Counters().Overflowed != 1 {
		t.Fatalf("overflowed=%d want 1", st.Counters().Overflowed)
	}
}

func TestFeed_OverflowWithoutStartMarkerIgnored(t *testing.T) {
	var st Status
	feedAll(&st, strings.Repeat("A", LineCapacity+10))
	if st.Counters().Overflowed != 0 {
		t.Fatalf("bytes outside a sentence must be ignored")
	}
	if got := feedAll(&st, gllMinimal); got != 1 {
		t.Fatalf("feeds=%d want 1", got)
	}
}

func TestFeed_BufferNeverExceedsCapacityMinusOne(t *testing.T) {
	var st Status
	st.Feed('$')
	for i := 0; i < LineCapacity-1; i++ {
		st.Feed('A')
		if st.line.n > LineCapacity-1 {
			t.Fatalf("n=%d exceeds capacity-1", st.line.n)
		}
	}
	if st.line.n != LineCapacity-1 || !st.line.inSentence {
		t.Fatalf("n=%d in=%v, want full and still framing", st.line.n, st.line.inSentence)
	}
	st.Feed('A')
	if st.line.inSentence {
		t.Fatalf("expected sentence abandoned at capacity")
	}
}

func TestFeed_DollarRestartsMidSentence(t *testing.T) {
	var st Status
	partial := ggaScenario[:30]
	if got := feedAll(&st, partial+zda2023); got != 1 {
		t.Fatalf("feeds=%d want 1", got)
	}
	if st.LastKind() != KindZDA {
		t.Fatalf("last kind=%v want ZDA", st.LastKind())
	}
	if st.SatelliteCount() != 0 {
		t.Fatalf("partial GGA must not commit")
	}
}

func TestFeed_EmptyLineAndBareTerminators(t *testing.T) {
	var st Status
	if got := feedAll(&st, "\r\n$\r\n\n"); got != 0 {
		t.Fatalf("feeds=%d want 0", got)
	}
	if c := st.Counters(); c != (Counters{}) {
		t.Fatalf("counters=%+v want zero", c)
	}
}

func TestFeed_Idempotent(t *testing.T) {
	for _, s := range []string{ggaScenario, gllMinimal, zda2023} {
		var st Status
		feedAll(&st, s)
		first := st.Snapshot()
		feedAll(&st, s)
		if st.Snapshot() != first {
			t.Fatalf("%q not idempotent", strings.TrimSpace(s))
		}
	}
}

func TestTime_StaysValidWithoutDateSentences(t *testing.T) {
	var st Status
	feedAll(&st, ggaScenario)
	if _, ok := st.Time(); ok {
		t.Fatalf("time valid before ZDA")
	}
	feedAll(&st, zda2023)
	dt, ok := st.Time()
	if !ok {
		t.Fatalf("expected time after ZDA")
	}
	if dt.Year != 2023 || dt.Month != 2 || dt.Day != 23 || dt.Hour != 6 || dt.Minute != 6 {
		t.Fatalf("time=%+v", dt)
	}

	feedAll(&st, ggaScenario)
	dt, ok = st.Time()
	if !ok {
		t.Fatalf("GGA must not clear time validity")
	}
	if dt.Year != 2023 || dt.Hour != 16 || dt.Minute != 12 {
		t.Fatalf("time=%+v", dt)
	}

	feedAll(&st, zdaMinimal)
	if _, ok := st.Time(); ok {
		t.Fatalf("a ZDA with year 0 replaces the date")
	}
}

func TestWrite_FeedsChunks(t *testing.T) {
	var st Status
	stream := "garbage" + ggaScenario + "$GPGSA,broken" + zda2023
	n, err := st.Write([]byte(stream))
	if err != nil || n != len(stream) {
		t.Fatalf("Write=(%d,%v)", n, err)
	}
	if st.SatelliteCount() != 7 {
		t.Fatalf("satellites=%d want 7", st.SatelliteCount())
	}
	if _, ok := st.Time(); !ok {
		t.Fatalf("expected time after ZDA")
	}
}
