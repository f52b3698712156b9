// Package udp sends the current fix as a JSON datagram on a fixed interval.
package udp

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type udpConn interface {
	io.Writer
	io.Closer
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)
type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

type Broadcaster struct {
	dest string
	conn udpConn
	log  zerolog.Logger
}

func NewBroadcaster(dest string, logger *zerolog.Logger) (*Broadcaster, error) {
	b, err := newBroadcaster(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
	if err != nil {
		return nil, err
	}
	if logger != nil {
		b.log = logger.With().Str("module", "udp").Str("dest", dest).Logger()
	}
	return b, nil
}

func newBroadcaster(dest string, resolve resolveFunc, dial dialFunc) (*Broadcaster, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, errors.Wrap(err, "resolve dest")
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, errors.Wrap(err, "dial udp")
	}

	return &Broadcaster{dest: dest, conn: conn, log: zerolog.Nop()}, nil
}

func (b *Broadcaster) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := b.conn.Write(payload)
	return err
}

// Run sends next() every interval until ctx ends. A nil payload skips the
// tick. Send errors are logged and do not stop the loop, since an unreachable
// destination is usually transient.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration, next func() ([]byte, error)) error {
	if interval <= 0 {
		return errors.New("interval must be > 0")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return nil
		}

		payload, err := next()
		if err != nil {
			return errors.Wrap(err, "build payload")
		}
		if err := b.Send(payload); err != nil {
			if !failing {
				b.log.Warn().Err(err).Msg("udp send failed")
			}
			failing = true
			continue
		}
		if failing {
			b.log.Info().Msg("udp send recovered")
			failing = false
		}
	}
}

func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
