//go:build linux && (arm || arm64)

package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// openOutput finds the header line named GPIO<pin> on any gpiochip and
// requests it as an output at the given initial level.
func openOutput(pin int, initial int) (output, error) {
	lineName := fmt.Sprintf("GPIO%d", pin)

	// Pi 5 kernels may expose the header on gpiochip4.
	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", e.Name()))
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(initial), gpiocdev.WithConsumer("gpsfix-enable"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodOutput{chip: chip, line: line}, nil
	}
	return nil, errors.Errorf("gpio: line %q not found (or busy)", lineName)
}

var openOutputFn = openOutput

type gpiodOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (g *gpiodOutput) SetValue(v int) error {
	return g.line.SetValue(v)
}

func (g *gpiodOutput) Close() error {
	err := g.line.Close()
	_ = g.chip.Close()
	return err
}
