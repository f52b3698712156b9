package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gpsfix/internal/gps"
	"gpsfix/internal/nmea"
	"gpsfix/internal/replay"
)

type DecodeCmd struct {
	Input   string `arg:"" optional:"" help:"Raw NMEA file, or a capture with --capture. Reads stdin when empty or '-'." type:"path"`
	Capture bool   `help:"Input is a capture written by gps.record."`
	All     bool   `help:"Also print a line for checksum-valid sentences that are not decoded."`
}

func (c *DecodeCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, err := stderrLogger(cfg.Log)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if c.Input != "" && c.Input != "-" {
		f, err := os.Open(c.Input)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	d := decoder{out: out, all: c.All, log: logger}
	if c.Capture {
		recs, err := replay.NewReader(in).ReadAll()
		if err != nil {
			return errors.Wrap(err, "read capture")
		}
		for _, r := range recs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.feed(r.Chunk); err != nil {
				return err
			}
		}
	} else if err := d.copy(ctx, in); err != nil {
		return err
	}

	cnt := d.st.Counters()
	logger.Info().
		Uint64("committed", cnt.Committed).
		Uint64("ignored", cnt.Ignored).
		Uint64("rejected", cnt.Rejected).
		Uint64("overflowed", cnt.Overflowed).
		Msg("decode finished")
	return nil
}

// decoder feeds bytes to a Status and writes a JSON snapshot line for every
// committed sentence.
type decoder struct {
	st  nmea.Status
	out io.Writer
	all bool
	log zerolog.Logger
	seq uint64
}

func (d *decoder) copy(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if ferr := d.feed(buf[:n]); ferr != nil {
			return ferr
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read input")
		}
	}
}

func (d *decoder) feed(chunk []byte) error {
	enc := json.NewEncoder(d.out)
	for _, c := range chunk {
		before := d.st.Counters()
		if !d.st.Feed(c) {
			if err := d.st.Err(); err != nil && d.st.Counters() != before {
				d.log.Debug().Err(err).Msg("sentence dropped")
			}
			continue
		}
		if d.st.LastKind() == nmea.KindUnrecognized && !d.all {
			continue
		}
		if d.st.LastKind() != nmea.KindUnrecognized {
			d.seq++
		}
		snap := gps.FromStatus(&d.st)
		snap.Seq = d.seq
		if err := enc.Encode(snap); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	return nil
}
