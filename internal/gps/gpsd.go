package gps

import (
	"context"
	"net"
	"strings"
	"time"
)

const gpsdDefaultAddr = "127.0.0.1:2947"

// gpsdWatchNMEA asks gpsd to relay the receiver's sentences verbatim. gpsd
// still sends a few JSON banner lines first; the framer drops them because
// they carry no '$'.
const gpsdWatchNMEA = "?WATCH={\"enable\":true,\"nmea\":true}\n"

// dialGPSD connects to gpsd over TCP.
func dialGPSD(ctx context.Context, addr string) (net.Conn, error) {
	if strings.TrimSpace(addr) == "" {
		addr = gpsdDefaultAddr
	}
	d := &net.Dialer{Timeout: 2 * time.Second}
	if ctx == nil {
		return d.Dial("tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

var dialGPSDFn = dialGPSD

// gpsdWatch enables raw NMEA streaming.
func gpsdWatch(conn net.Conn) error {
	_, err := conn.Write([]byte(gpsdWatchNMEA))
	return err
}

// nextBackoff doubles d up to max.
func nextBackoff(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}
