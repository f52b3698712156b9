// Package gpio drives the receiver's power/enable pin.
package gpio

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config selects the enable pin. Pin is BCM numbering; zero disables the
// feature.
type Config struct {
	Pin       int
	ActiveLow bool
	Logger    *zerolog.Logger
}

type output interface {
	SetValue(v int) error
	Close() error
}

// EnableLine holds the receiver enable output for the life of the process.
type EnableLine struct {
	out       output
	pin       int
	activeLow bool
	log       zerolog.Logger
}

// Open requests the pin as an output and switches the receiver on.
func Open(cfg Config) (*EnableLine, error) {
	if cfg.Pin <= 0 {
		return nil, errors.Errorf("gpio: invalid pin %d", cfg.Pin)
	}
	e := &EnableLine{pin: cfg.Pin, activeLow: cfg.ActiveLow, log: zerolog.Nop()}
	if cfg.Logger != nil {
		e.log = cfg.Logger.With().Str("module", "gpio").Logger()
	}

	out, err := openOutputFn(cfg.Pin, e.level(false))
	if err != nil {
		return nil, err
	}
	e.out = out
	if err := e.Set(true); err != nil {
		_ = out.Close()
		return nil, err
	}
	return e, nil
}

func (e *EnableLine) level(on bool) int {
	if on != e.activeLow {
		return 1
	}
	return 0
}

// Set switches the receiver on or off.
func (e *EnableLine) Set(on bool) error {
	if e == nil || e.out == nil {
		return errors.New("gpio: enable line not open")
	}
	if err := e.out.SetValue(e.level(on)); err != nil {
		return errors.Wrapf(err, "gpio: set pin %d", e.pin)
	}
	e.log.Info().Int("pin", e.pin).Bool("on", on).Msg("receiver power")
	return nil
}

// Close switches the receiver off and releases the line.
func (e *EnableLine) Close() error {
	if e == nil || e.out == nil {
		return nil
	}
	_ = e.Set(false)
	err := e.out.Close()
	e.out = nil
	return err
}
