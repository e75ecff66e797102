package mt

import "github.com/rs/zerolog/log"

// decoderState is the byte-ingestion state of the Decoder.
type decoderState int

const (
	stateWaitSOF decoderState = iota
	stateLen
	stateData
	stateFCS
)

// Decoder incrementally assembles GeneralFrames from a raw byte stream.
// It is not safe for concurrent use from multiple goroutines; the frame
// codec is always driven from a single reader goroutine.
type Decoder struct {
	state  decoderState
	length int
	buf    []byte // accumulated header+payload bytes while in stateData
}

// NewDecoder returns a Decoder ready to ingest bytes starting at WAIT_SOF.
func NewDecoder() *Decoder {
	return &Decoder{state: stateWaitSOF}
}

// Feed ingests bytes arriving from the UART and returns zero or more
// completed frames. Malformed frames are discarded silently with a debug
// trace; Feed itself never fails.
func (d *Decoder) Feed(data []byte) []GeneralFrame {
	var frames []GeneralFrame
	for _, b := range data {
		if f, ok := d.feedByte(b); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func (d *Decoder) feedByte(b byte) (GeneralFrame, bool) {
	switch d.state {
	case stateWaitSOF:
		if b == SOF {
			d.state = stateLen
		}
		return GeneralFrame{}, false

	case stateLen:
		if int(b) > MaxPayloadLen {
			log.Debug().Uint8("length", b).Msg("MT frame oversize length, resyncing")
			d.state = stateWaitSOF
			return GeneralFrame{}, false
		}
		d.length = int(b)
		d.buf = make([]byte, 0, 2+d.length)
		d.state = stateData
		return GeneralFrame{}, false

	case stateData:
		d.buf = append(d.buf, b)
		if len(d.buf) == 2+d.length {
			d.state = stateFCS
		}
		return GeneralFrame{}, false

	case stateFCS:
		d.state = stateWaitSOF
		expected := xorChecksum(append([]byte{byte(d.length)}, d.buf...))
		if b != expected {
			log.Debug().Msg("MT frame FCS mismatch, discarding")
			return GeneralFrame{}, false
		}
		header := DecodeHeaderBytes(d.buf[0], d.buf[1])
		payload := make([]byte, d.length)
		copy(payload, d.buf[2:])
		return GeneralFrame{Header: header, Payload: payload}, true

	default:
		d.state = stateWaitSOF
		return GeneralFrame{}, false
	}
}
