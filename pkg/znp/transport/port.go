// Package transport implements the MT serial attach/detach lifecycle:
// opening the configured serial device, feeding bytes through the MT
// decoder into the correlation core, a liveness-probing Connect, and the
// unexpected-disconnect reconnection loop.
package transport

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/urmzd/go-znp/pkg/mt"
	"github.com/urmzd/go-znp/pkg/znp/config"
)

// Port wraps a serial connection to the ZNP radio: 115200/8-N-1 by
// default, RTS-based hardware flow control, a single-writer mutex.
type Port struct {
	port serial.Port
	mu   sync.Mutex
}

// Open opens path at the given baud rate with the requested flow control
// mode.
func Open(path string, baudRate int, flow config.FlowControl) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	raw, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	switch flow {
	case config.FlowControlHardware:
		if err := raw.SetRTS(true); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("set RTS: %w", err)
		}
	case config.FlowControlSoftware:
		// go.bug.st/serial has no dedicated XON/XOFF toggle; software flow
		// control here is negotiated by the device itself once opened.
	}

	log.Info().Str("port", path).Int("baud", baudRate).Msg("serial port opened")

	return &Port{port: raw}, nil
}

// Write sends raw bytes to the serial port.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port.Write(data)
}

// ReadByte reads a single byte from the serial port.
func (p *Port) ReadByte() (byte, error) {
	buf := make([]byte, 1)
	if _, err := io.ReadFull(p.port, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Close closes the serial port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port.Close()
}

// Send implements correlation.Sender by encoding frame and writing it to
// the wire.
func (p *Port) Send(frame mt.GeneralFrame) error {
	bytes, err := mt.Encode(frame)
	if err != nil {
		return err
	}
	_, err = p.Write(bytes)
	return err
}
