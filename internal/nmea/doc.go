// Package nmea is a byte-fed NMEA-0183 parser for GNSS receivers.
//
// Bytes are pushed one at a time into a Status, which frames sentences into a
// fixed-size line buffer, validates the trailing checksum and decodes the few
// sentence kinds needed for a time/location fix:
//   - GGA for position, altitude, fix quality and satellite count
//   - GLL and RMC for position and validity
//   - ZDA for the calendar date
//
// Every other sentence is checksum-validated and dropped. A sentence either
// commits all of its fields or none of them.
//
// A Status is not safe for concurrent use. Publish copies obtained from
// Status.Snapshot to other goroutines instead.
package nmea
