package nmea

import "testing"

func TestDispatch_CommitsEachKind(t *testing.T) {
	var snap Snapshot

	kind, err := dispatch([]byte("GNGGA,121613.000,2455.2122,N,6532.8547,E,1,05,3.3,-1.0,M,0.0,M,,*64"), &snap)
	if err != nil || kind != KindGGA {
		t.Fatalf("GGA: kind=%v err=%v", kind, err)
	}
	if snap.TimeOfDay.Hour != 12 || snap.TimeOfDay.Minute != 16 || !approx(snap.TimeOfDay.Second, 13) {
		t.Fatalf("GGA clock=%+v", snap.TimeOfDay)
	}
	if !approx(snap.Position.Latitude, 24.920203) || !approx(snap.Position.Longitude, 65.547578) || !approx(snap.Position.Altitude, -1.0) {
		t.Fatalf("GGA position=%+v", snap.Position)
	}
	if !snap.Position.Valid || snap.Satellites != 5 {
		t.Fatalf("GGA valid=%v satellites=%d", snap.Position.Valid, snap.Satellites)
	}

	kind, err = dispatch([]byte("GNGLL,4922.1031,N,10022.1234,W,002434.000,A,A*5F"), &snap)
	if err != nil || kind != KindGLL {
		t.Fatalf("GLL: kind=%v err=%v", kind, err)
	}
	if !approx(snap.Position.Latitude, 49.368385) || !approx(snap.Position.Longitude, -100.368723) || !snap.Position.Valid {
		t.Fatalf("GLL position=%+v", snap.Position)
	}
	// GLL carries no altitude or satellite count.
	if !approx(snap.Position.Altitude, -1.0) || snap.Satellites != 5 {
		t.Fatalf("GLL clobbered alt=%v satellites=%d", snap.Position.Altitude, snap.Satellites)
	}

	kind, err = dispatch([]byte("GNRMC,001313.000,A,3740.0000,N,12223.0000,W,0.00,0.00,290123,,,A*69"), &snap)
	if err != nil || kind != KindRMC {
		t.Fatalf("RMC: kind=%v err=%v", kind, err)
	}
	if !approx(snap.Position.Latitude, 37.666667) || !approx(snap.Position.Longitude, -122.383333) {
		t.Fatalf("RMC position=%+v", snap.Position)
	}
	if snap.TimeOfDay.Valid {
		t.Fatalf("time valid before any ZDA")
	}

	kind, err = dispatch([]byte("GNZDA,060618.133,23,02,2023,00,00*40"), &snap)
	if err != nil || kind != KindZDA {
		t.Fatalf("ZDA: kind=%v err=%v", kind, err)
	}
	if snap.Date.Year != 2023 || snap.Date.Month != 2 || snap.Date.Day != 23 {
		t.Fatalf("ZDA date=%+v", snap.Date)
	}
	if snap.TimeOfDay.Hour != 6 || snap.TimeOfDay.Minute != 6 || !approx(snap.TimeOfDay.Second, 18.133) {
		t.Fatalf("ZDA clock=%+v", snap.TimeOfDay)
	}
	if !snap.TimeOfDay.Valid {
		t.Fatalf("expected time valid after ZDA")
	}
}

func TestDispatch_TooShort(t *testing.T) {
	var snap Snapshot
	for _, in := range []string{"", "G", "GPGGA"} {
		if _, err := dispatch([]byte(in), &snap); err != ErrTooShort {
			t.Fatalf("dispatch(%q) err=%v want %v", in, err, ErrTooShort)
		}
	}
}

func TestDispatch_KnownKindNeedsSeparator(t *testing.T) {
	var snap Snapshot
	if _, err := dispatch(body(nmeaLine("GPGGAX,161229.487")), &snap); err != ErrSeparator {
		t.Fatalf("err=%v want %v", err, ErrSeparator)
	}
}

func TestDispatch_UnrecognizedChecksumOnly(t *testing.T) {
	var snap Snapshot
	good := nmeaLine("GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1")
	kind, err := dispatch(body(good), &snap)
	if err != nil || kind != KindUnrecognized {
		t.Fatalf("kind=%v err=%v", kind, err)
	}
	if snap != (Snapshot{}) {
		t.Fatalf("unrecognized sentence mutated snapshot: %+v", snap)
	}

	bad := good[:len(good)-2] + "00"
	if _, err := dispatch(body(bad), &snap); err != ErrChecksum {
		t.Fatalf("err=%v want %v", err, ErrChecksum)
	}
}

func TestDispatch_TalkerIgnored(t *testing.T) {
	for _, talker := range []string{"GP", "GN", "GL", "BD", "XX"} {
		var snap Snapshot
		line := body(nmeaLine(talker + "GGA,161229.487,3723.2475,N,12158.3416,W,1,07,1.0,9.0,M,1.0,M,1,0000"))
		kind, err := dispatch(line, &snap)
		if err != nil || kind != KindGGA {
			t.Fatalf("talker %s: kind=%v err=%v", talker, kind, err)
		}
	}
}

func TestDispatch_FailureLeavesSnapshot(t *testing.T) {
	var snap Snapshot
	if _, err := dispatch([]byte("GNZDA,060618.133,23,02,2023,00,00*40"), &snap); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := snap

	bad := body(nmeaLine("GPGGA,161229.487,3723.2475,N,12158.3416,W,1,07,1.0,9.0,F,1.0,M,1,0000"))
	if _, err := dispatch(bad, &snap); err != ErrUnits {
		t.Fatalf("err=%v want %v", err, ErrUnits)
	}
	if snap != before {
		t.Fatalf("snapshot changed on failure:\n got %+v\nwant %+v", snap, before)
	}
}

func TestDispatch_SmallYearKeepsTimeInvalid(t *testing.T) {
	var snap Snapshot
	line := body(nmeaLine("GNZDA,001313.000,29,01,0999,00,00"))
	if _, err := dispatch(line, &snap); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if snap.TimeOfDay.Valid {
		t.Fatalf("year 999 should not validate time")
	}
	if snap.Date.Year != 999 {
		t.Fatalf("year=%d want 999", snap.Date.Year)
	}
}
