package web

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type Options struct {
	// PushInterval is how often /ws checks for a newer snapshot.
	PushInterval time.Duration
	Logs         *LogBuffer
	Logger       *zerolog.Logger
}

// Server serves the gps snapshot over HTTP and WebSocket.
type Server struct {
	src     SnapshotSource
	opts    Options
	log     zerolog.Logger
	bcast   *Broadcaster
	started time.Time
	now     func() time.Time
}

func New(src SnapshotSource, opts Options) *Server {
	s := &Server{
		src:     src,
		opts:    opts,
		log:     zerolog.Nop(),
		bcast:   NewBroadcaster(),
		started: time.Now(),
		now:     time.Now,
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("module", "web").Logger()
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", d).
			Msg("http request")
	}))

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/time", s.handleTime)
	r.Get("/api/location", s.handleLocation)
	r.Get("/api/about", handleAbout)
	r.Get("/get_info", s.handleInfo)
	r.Get("/ws", wsHandler(s.bcast, s.log))
	if s.opts.Logs != nil {
		r.Get("/api/logs", s.opts.Logs.ServeHTTP)
	}
	r.Get("/", s.handleRoot)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusSnapshot(s.started, s.now(), s.src.Snapshot()))
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	resp := timeResponse(s.src.Snapshot())
	code := http.StatusOK
	if !resp.Valid {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	loc, ok := snap.Location()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no fix"})
		return
	}
	resp := LocationResponse{
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Altitude:   loc.Altitude,
		Satellites: snap.Satellites,
	}
	if age, ok := snap.FixAge(s.now()); ok {
		resp.AgeMs = age.Milliseconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse(s.now(), s.src.Snapshot()))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>gpsfix</title></head><body>")
	_, _ = fmt.Fprintf(w, "<h1>gpsfix</h1>")
	_, _ = fmt.Fprintf(w, "<p>See <a href=\"/api/status\">/api/status</a> or connect to /ws.</p>")
	_, _ = fmt.Fprintf(w, "<pre>source=%s\ndevice=%s\nvalid=%t\nsatellites=%d\nutc=%s\nlast_error=%s</pre>",
		snap.Source, snap.Device, snap.Valid, snap.Satellites, snap.UTCTime, snap.LastError,
	)
	_, _ = fmt.Fprintf(w, "</body></html>")
}

type AboutResponse struct {
	Service    string `json:"service"`
	GoVersion  string `json:"go_version"`
	ModulePath string `json:"module_path,omitempty"`
	Version    string `json:"version,omitempty"`
	Commit     string `json:"commit,omitempty"`
	Dirty      bool   `json:"dirty,omitempty"`
}

func handleAbout(w http.ResponseWriter, r *http.Request) {
	resp := AboutResponse{Service: "gpsfix", GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		resp.ModulePath = bi.Main.Path
		resp.Version = bi.Main.Version
		for _, kv := range bi.Settings {
			switch kv.Key {
			case "vcs.revision":
				resp.Commit = kv.Value
			case "vcs.modified":
				resp.Dirty = kv.Value == "true"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Serve runs the HTTP server and the WebSocket fanout until ctx ends.
func (s *Server) Serve(ctx context.Context, listenAddr string) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.bcast.Watch(watchCtx, s.src, s.opts.PushInterval)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("listen", listenAddr).Msg("web enabled")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
