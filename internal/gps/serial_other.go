//go:build !linux

package gps

import (
	"io"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

func openSerial(path string, baud int) (io.ReadWriteCloser, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        path,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return port, nil
}
