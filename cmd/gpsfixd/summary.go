package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"gpsfix/internal/nmea"
	"gpsfix/internal/replay"
)

type SummaryCmd struct {
	Path string `arg:"" help:"Capture written by gps.record." type:"existingfile"`
}

func (c *SummaryCmd) Run() error {
	recs, err := replay.ReadFile(c.Path)
	if err != nil {
		return errors.Wrapf(err, "read capture %s", c.Path)
	}
	s := summarizeCapture(recs)
	fmt.Printf("path: %s\n", c.Path)
	s.print(os.Stdout)
	return nil
}

type captureSummary struct {
	Segments    int
	Chunks      int
	Bytes       int
	MaxDuration time.Duration
	Kinds       map[nmea.Kind]uint64
	Counters    nmea.Counters
}

func summarizeCapture(records []replay.Record) captureSummary {
	s := captureSummary{Kinds: map[nmea.Kind]uint64{}}

	var st nmea.Status
	origin := time.Duration(0)
	for _, r := range records {
		if r.Chunk == nil {
			s.Segments++
			origin = r.At
			continue
		}
		s.Chunks++
		s.Bytes += len(r.Chunk)
		if at := r.At - origin; at > s.MaxDuration {
			s.MaxDuration = at
		}
		for _, c := range r.Chunk {
			if st.Feed(c) {
				s.Kinds[st.LastKind()]++
			}
		}
	}
	if s.Segments == 0 && s.Chunks > 0 {
		s.Segments = 1
	}
	s.Counters = st.Counters()
	return s
}

func (s captureSummary) print(w io.Writer) {
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "chunks: %d\n", s.Chunks)
	fmt.Fprintf(w, "bytes: %d\n", s.Bytes)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)
	fmt.Fprintf(w, "rejected: %d\n", s.Counters.Rejected)
	fmt.Fprintf(w, "overflowed: %d\n", s.Counters.Overflowed)
	fmt.Fprintf(w, "sentences:\n")
	for _, k := range []nmea.Kind{nmea.KindGGA, nmea.KindGLL, nmea.KindRMC, nmea.KindZDA, nmea.KindUnrecognized} {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Kinds[k])
	}
}
