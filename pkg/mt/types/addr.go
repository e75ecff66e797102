package types

import "fmt"

// Addressing modes for AddrModeAddress (Z-Stack AF/ZDO address mode tag).
const (
	AddrModeNotPresent uint8 = 0x00
	AddrModeGroup      uint8 = 0x01
	AddrMode16Bit      uint8 = 0x02
	AddrMode64Bit      uint8 = 0x03
	AddrModeBroadcast  uint8 = 0x0F
)

// AddrModeAddress is the composite (mode, address) pair used throughout
// AF/ZDO schemas: one mode byte followed by an 8-byte address field whose
// interpretation (group/short address vs. IEEE address) depends on the
// mode.
type AddrModeAddress struct {
	Mode    uint8
	Short   uint16  // valid when Mode is Group, 16Bit or Broadcast
	Extended [8]byte // valid when Mode is 64Bit
}

// AddrModeAddressCodec serializes/deserializes AddrModeAddress values as a
// mode byte plus an 8-byte address field (short addresses are placed in
// the first 2 bytes, little-endian; the remaining bytes are zero).
type AddrModeAddressCodec struct{}

func NewAddrModeAddressCodec() AddrModeAddressCodec { return AddrModeAddressCodec{} }

func (AddrModeAddressCodec) Serialize(value any) ([]byte, error) {
	a, ok := value.(AddrModeAddress)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an AddrModeAddress", ErrWrongGoType, value)
	}
	out := make([]byte, 9)
	out[0] = a.Mode
	switch a.Mode {
	case AddrMode64Bit:
		copy(out[1:9], a.Extended[:])
	default:
		out[1] = byte(a.Short)
		out[2] = byte(a.Short >> 8)
	}
	return out, nil
}

func (AddrModeAddressCodec) Deserialize(buf []byte) (any, []byte, error) {
	if len(buf) < 9 {
		return nil, nil, ErrShortBuffer
	}
	a := AddrModeAddress{Mode: buf[0]}
	switch a.Mode {
	case AddrMode64Bit:
		copy(a.Extended[:], buf[1:9])
	default:
		a.Short = uint16(buf[1]) | uint16(buf[2])<<8
	}
	return a, buf[9:], nil
}

// NWKAddrCodec encodes a 2-byte little-endian network address. It is a
// thin, semantically-named alias over U16 used wherever a schema field is
// specifically a network address rather than a generic u16.
type NWKAddrCodec struct{ inner UintCodec }

func NewNWKAddrCodec() NWKAddrCodec { return NWKAddrCodec{inner: U16()} }

func (c NWKAddrCodec) Serialize(value any) ([]byte, error) { return c.inner.Serialize(value) }

func (c NWKAddrCodec) Deserialize(buf []byte) (any, []byte, error) {
	return c.inner.Deserialize(buf)
}
