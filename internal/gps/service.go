package gps

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gpsfix/internal/nmea"
	"gpsfix/internal/replay"
)

const (
	SourceSerial = "serial"
	SourceGPSD   = "gpsd"
	SourceReplay = "replay"
)

// Config controls the receiver session.
//
// Device may be empty to auto-detect /dev/ttyACM* and /dev/ttyUSB*.
// Most u-blox and MediaTek receivers default to 9600 baud.
type Config struct {
	Enable bool

	// Source is "serial", "gpsd" or "replay". Empty means serial.
	Source string

	Device string
	Baud   int

	// GPSDAddr is host:port for gpsd when Source=="gpsd".
	GPSDAddr string

	// ReplayPath is a capture written by RecordPath on an earlier run.
	ReplayPath  string
	ReplaySpeed float64
	ReplayLoop  bool

	// RecordPath, when set, captures every received chunk for later replay.
	RecordPath string

	Logger *zerolog.Logger
}

type Service struct {
	cfg Config
	log zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last atomic.Value // Snapshot

	// mu guards everything below, including the parser.
	mu      sync.Mutex
	closer  io.Closer
	rec     *replay.Writer
	st      nmea.Status
	base    Snapshot
	seq     uint64
	lastFix time.Time
	lastErr string
}

func New(cfg Config) *Service {
	s := &Service{cfg: cfg}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("module", "gps").Logger()
	} else {
		s.log = zerolog.Nop()
	}
	s.base = Snapshot{Enabled: cfg.Enable, Source: normalizeSource(cfg.Source)}
	s.last.Store(s.base)
	return s
}

func normalizeSource(src string) string {
	src = strings.ToLower(strings.TrimSpace(src))
	if src == "" || src == "nmea" {
		return SourceSerial
	}
	return src
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("gps service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if ctx == nil {
		return errors.New("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	if p := strings.TrimSpace(s.cfg.RecordPath); p != "" {
		w, err := replay.CreateWriter(p)
		if err != nil {
			return errors.Wrapf(err, "gps record path=%s", p)
		}
		s.rec = w
		s.log.Info().Str("path", p).Msg("gps recording")
	}

	var err error
	switch src := normalizeSource(s.cfg.Source); src {
	case SourceSerial:
		err = s.startSerialLocked(ctx)
	case SourceGPSD:
		err = s.startGPSDLocked(ctx)
	case SourceReplay:
		err = s.startReplayLocked(ctx)
	default:
		err = errors.Errorf("unknown gps source %q", src)
	}
	if err != nil && s.rec != nil {
		_ = s.rec.Close()
		s.rec = nil
	}
	return err
}

func (s *Service) startSerialLocked(ctx context.Context) error {
	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			s.setErrorLocked("gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			return errors.New("gps auto-detect failed")
		}
	}

	baud := s.cfg.Baud
	if baud == 0 {
		baud = 9600
	}
	s.base.Device = device
	s.base.Baud = baud

	port, err := openSerial(device, baud)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps open failed device=%s baud=%d: %v", device, baud, err))
		return err
	}
	s.closer = port

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = port.Close() }()

		s.log.Info().Str("device", device).Int("baud", baud).Msg("gps enabled")
		if err := s.pump(childCtx, port); err != nil && childCtx.Err() == nil {
			s.setError(fmt.Sprintf("gps read stopped: %v", err))
		}
	}()

	s.publishLocked()
	return nil
}

func (s *Service) startGPSDLocked(ctx context.Context) error {
	addr := strings.TrimSpace(s.cfg.GPSDAddr)
	if addr == "" {
		addr = gpsdDefaultAddr
	}
	s.base.GPSDAddr = addr
	s.base.Device = "gpsd"

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.log.Info().Str("addr", addr).Msg("gps enabled source=gpsd")
		const minBackoff = 250 * time.Millisecond
		const maxBackoff = 10 * time.Second
		backoff := minBackoff

		for childCtx.Err() == nil {
			conn, err := dialGPSDFn(childCtx, addr)
			if err != nil {
				s.setError(fmt.Sprintf("gpsd dial failed addr=%s: %v", addr, err))
				select {
				case <-childCtx.Done():
					return
				case <-time.After(backoff):
				}
				backoff = nextBackoff(backoff, maxBackoff)
				continue
			}
			backoff = minBackoff

			s.mu.Lock()
			// Close() cancels under the same lock, so a connection dialed
			// after it ran is closed here.
			if childCtx.Err() != nil {
				s.mu.Unlock()
				_ = conn.Close()
				return
			}
			s.closer = conn
			s.mu.Unlock()

			if err := gpsdWatch(conn); err != nil {
				s.setError(fmt.Sprintf("gpsd watch failed: %v", err))
			} else if err := s.pump(childCtx, conn); err != nil && childCtx.Err() == nil {
				s.setError(fmt.Sprintf("gpsd read stopped: %v", err))
			}
			_ = conn.Close()

			select {
			case <-childCtx.Done():
				return
			case <-time.After(minBackoff):
			}
		}
	}()

	s.publishLocked()
	return nil
}

func (s *Service) startReplayLocked(ctx context.Context) error {
	path := strings.TrimSpace(s.cfg.ReplayPath)
	if path == "" {
		return errors.New("gps replay path is required")
	}
	recs, err := replay.ReadFile(path)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps replay load failed path=%s: %v", path, err))
		return errors.Wrapf(err, "gps replay path=%s", path)
	}
	speed := s.cfg.ReplaySpeed
	if speed <= 0 {
		speed = 1
	}
	s.base.Device = path

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.log.Info().Str("path", path).Int("records", len(recs)).Float64("speed", speed).Bool("loop", s.cfg.ReplayLoop).Msg("gps enabled source=replay")
		err := replay.Play(childCtx, recs, speed, s.cfg.ReplayLoop, nil, func(chunk []byte) error {
			s.Ingest(time.Now().UTC(), chunk)
			return nil
		})
		if err != nil && childCtx.Err() == nil {
			s.setError(fmt.Sprintf("gps replay stopped: %v", err))
			return
		}
		s.log.Info().Msg("gps replay finished")
	}()

	s.publishLocked()
	return nil
}

// pump copies r into the parser until r fails or ctx ends.
func (s *Service) pump(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 512)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.Ingest(time.Now().UTC(), buf[:n])
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Ingest feeds one received chunk to the parser and publishes a new
// Snapshot if any sentence committed or failed.
func (s *Service) Ingest(now time.Time, chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec != nil {
		if err := s.rec.WriteChunk(now, chunk); err != nil {
			s.log.Warn().Err(err).Msg("gps recording stopped")
			_ = s.rec.Close()
			s.rec = nil
		}
	}

	wasValid := s.st.Snapshot().Position.Valid
	prev := s.st.Counters()
	dirty := false
	for _, c := range chunk {
		committed := s.st.Feed(c)
		cur := s.st.Counters()
		if cur == prev {
			continue
		}
		prev = cur
		dirty = true
		if committed {
			kind := s.st.LastKind()
			if kind != nmea.KindUnrecognized {
				s.seq++
			}
			if _, ok := s.st.Location(); ok && carriesPosition(kind) {
				s.lastFix = now
			}
			continue
		}
		if err := s.st.Err(); err != nil {
			s.lastErr = err.Error()
			s.log.Debug().Err(err).Msg("gps sentence dropped")
		}
	}
	if !dirty {
		return
	}

	if isValid := s.st.Snapshot().Position.Valid; isValid != wasValid {
		if isValid {
			s.log.Info().Msg("gps fix acquired")
		} else {
			s.log.Info().Msg("gps fix lost")
		}
	}
	s.publishLocked()
}

func carriesPosition(k nmea.Kind) bool {
	switch k {
	case nmea.KindGGA, nmea.KindGLL, nmea.KindRMC:
		return true
	}
	return false
}

func (s *Service) publishLocked() {
	snap := FromStatus(&s.st)
	snap.Enabled = s.base.Enabled
	snap.Source = s.base.Source
	snap.GPSDAddr = s.base.GPSDAddr
	snap.Device = s.base.Device
	snap.Baud = s.base.Baud
	snap.Seq = s.seq
	snap.LastError = s.lastErr
	snap.LastFix = s.lastFix
	if !s.lastFix.IsZero() {
		snap.LastFixUTC = s.lastFix.UTC().Format(time.RFC3339Nano)
	}
	s.last.Store(snap)
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	// Cancel under the lock so a reader that swaps in a new connection
	// afterwards sees the cancellation.
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	closer := s.closer
	s.closer = nil
	s.mu.Unlock()

	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec != nil {
		if err := s.rec.Close(); err != nil {
			s.log.Warn().Err(err).Msg("gps recording close failed")
		}
		s.rec = nil
	}
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErrorLocked(msg)
}

func (s *Service) setErrorLocked(msg string) {
	s.lastErr = msg
	s.log.Warn().Msg(msg)
	s.publishLocked()
}

func autoDetectDevice() string {
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
