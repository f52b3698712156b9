// Package gps runs a GNSS receiver session around an nmea.Status.
//
// Bytes come from a serial port, from gpsd relaying raw NMEA, or from a
// recorded capture. A single reader goroutine feeds the parser and publishes
// an immutable Snapshot after every committed sentence, so readers never
// touch parser state.
package gps
