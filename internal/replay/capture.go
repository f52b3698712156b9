package replay

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Capture format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Line "START" resets the origin (next record time is relative to 0 again).
// - Data lines are: <t_ns>,<hex>
//   where t_ns is nanoseconds since START and hex is a raw chunk of bytes as
//   read from the receiver. Chunks do not follow sentence boundaries.

const startMarker = "START"

// Record is one chunk and its offset from the preceding START marker. A nil
// Chunk is a START marker.
type Record struct {
	At    time.Duration
	Chunk []byte
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadAll parses the whole capture. Errors carry the 1-based line number.
func (rr *Reader) ReadAll() ([]Record, error) {
	sc := bufio.NewScanner(rr.r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var recs []Record
	for n := 1; sc.Scan(); n++ {
		rec, ok, err := parseLine(sc.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "capture line %d", n)
		}
		if ok {
			recs = append(recs, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read capture")
	}
	return recs, nil
}

// parseLine decodes one capture line. ok is false for blank and comment
// lines.
func parseLine(line string) (rec Record, ok bool, err error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "", line[0] == '#':
		return Record{}, false, nil
	case line == startMarker:
		return Record{}, true, nil
	}

	ts, payload, found := strings.Cut(line, ",")
	if !found {
		return Record{}, false, errors.Errorf("missing comma in %q", line)
	}
	ns, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
	if err != nil {
		return Record{}, false, errors.Wrap(err, "timestamp")
	}
	if ns < 0 {
		return Record{}, false, errors.Errorf("negative timestamp %d", ns)
	}
	chunk, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(payload), " ", ""))
	if err != nil {
		return Record{}, false, errors.Wrap(err, "payload")
	}
	if len(chunk) == 0 {
		return Record{}, false, errors.New("empty payload")
	}
	return Record{At: time.Duration(ns), Chunk: chunk}, true, nil
}

// ReadFile loads a capture from disk.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open capture")
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

type Writer struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create capture")
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString(startMarker + "\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

func (ww *Writer) WriteChunk(now time.Time, chunk []byte) error {
	if ww.closed {
		return errors.New("capture writer is closed")
	}
	if len(chunk) == 0 {
		return nil
	}

	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), hex.EncodeToString(chunk))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play replays records with their relative timing.
//
// cb is invoked for each record carrying a chunk. START markers reset the
// origin. speedMultiplier: 1.0 = real time, 2.0 = half waits.
func Play(ctx context.Context, records []Record, speedMultiplier float64, loop bool, sleeper Sleeper, cb func(chunk []byte) error) error {
	if speedMultiplier <= 0 {
		return errors.New("speedMultiplier must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("callback is nil")
	}
	if len(records) == 0 {
		return errors.New("no records")
	}

	for {
		if err := playOnce(ctx, records, speedMultiplier, sleeper, cb); err != nil {
			return err
		}
		if !loop {
			return nil
		}
	}
}

func playOnce(ctx context.Context, records []Record, speed float64, sleeper Sleeper, cb func(chunk []byte) error) error {
	var origin, prev time.Duration
	first := true
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Chunk == nil {
			origin, prev, first = r.At, 0, true
			continue
		}

		at := max(r.At-origin, 0)
		if !first {
			if wait := time.Duration(float64(at-prev) / speed); wait > 0 {
				if err := sleeper.Sleep(ctx, wait); err != nil {
					return err
				}
			}
		}
		if err := cb(r.Chunk); err != nil {
			return err
		}
		prev, first = at, false
	}
	return nil
}
