package web

import (
	"fmt"
	"time"

	"gpsfix/internal/gps"
)

// SnapshotSource is satisfied by *gps.Service.
type SnapshotSource interface {
	Snapshot() gps.Snapshot
}

type StatusSnapshot struct {
	Service   string       `json:"service"`
	NowUTC    string       `json:"now_utc"`
	UptimeSec int64        `json:"uptime_sec"`
	GPS       gps.Snapshot `json:"gps"`
}

func statusSnapshot(started, now time.Time, snap gps.Snapshot) StatusSnapshot {
	return StatusSnapshot{
		Service:   "gpsfix",
		NowUTC:    now.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(now.Sub(started).Seconds()),
		GPS:       snap,
	}
}

type TimeResponse struct {
	Valid   bool   `json:"valid"`
	UTC     string `json:"utc,omitempty"`
	Unix    int64  `json:"unix,omitempty"`
	ZoneHr  uint8  `json:"zone_hour"`
	ZoneMin uint8  `json:"zone_minute"`
}

func timeResponse(snap gps.Snapshot) TimeResponse {
	out := TimeResponse{
		ZoneHr:  snap.Fix.Date.ZoneHour,
		ZoneMin: snap.Fix.Date.ZoneMinute,
	}
	if t, ok := snap.UTC(); ok {
		out.Valid = true
		out.UTC = t.Format(time.RFC3339Nano)
		out.Unix = t.Unix()
	}
	return out
}

type LocationResponse struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Altitude   float64 `json:"altitude"`
	Satellites int     `json:"satellites"`
	AgeMs      int64   `json:"age_ms"`
}

// noFix fills /get_info numbers when the receiver has no position; JSON
// has no NaN.
const noFix = -512

// InfoResponse is the compact status document served at /get_info.
type InfoResponse struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Altitude   float64 `json:"altitude"`
	Time       string  `json:"time"`
	Satellites int     `json:"satellites"`
	// GPSAge is microseconds since the last valid position, 0 if never.
	GPSAge   int64 `json:"gps_age"`
	GPSValid int   `json:"gps_valid"`
}

func infoResponse(now time.Time, snap gps.Snapshot) InfoResponse {
	out := InfoResponse{
		Latitude:   noFix,
		Longitude:  noFix,
		Altitude:   noFix,
		Time:       "0000-00-00 00:00:00",
		Satellites: snap.Satellites,
	}
	if loc, ok := snap.Location(); ok {
		out.Latitude = loc.Latitude
		out.Longitude = loc.Longitude
		out.Altitude = loc.Altitude
		out.GPSValid = 1
	}
	if age, ok := snap.FixAge(now); ok {
		out.GPSAge = age.Microseconds()
	}
	if t, ok := snap.UTC(); ok {
		out.Time = fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
			t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return out
}
