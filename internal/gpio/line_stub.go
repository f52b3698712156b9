//go:build !linux || (!arm && !arm64)

package gpio

import "github.com/pkg/errors"

func openOutput(pin int, initial int) (output, error) {
	return nil, errors.New("gpio: unsupported on this platform")
}

var openOutputFn = openOutput
