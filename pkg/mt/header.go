// Package mt implements the TI "Monitor and Test" serial frame codec: the
// byte-oriented state machine that assembles and emits length-prefixed,
// XOR-checksummed frames, and the command header bit layout they carry.
package mt

import "fmt"

// FrameType is the 3-bit command type tag in an MT header.
type FrameType uint8

const (
	// FrameTypePOLL and the two reserved types are declared but unused by
	// the catalog; only SREQ, AREQ and SRSP appear in materialized
	// commands.
	FrameTypePOLL      FrameType = 0
	FrameTypeSREQ      FrameType = 1
	FrameTypeAREQ      FrameType = 2
	FrameTypeSRSP      FrameType = 3
	FrameTypeReserved4 FrameType = 4
	FrameTypeReserved5 FrameType = 5
)

func (t FrameType) String() string {
	switch t {
	case FrameTypePOLL:
		return "POLL"
	case FrameTypeSREQ:
		return "SREQ"
	case FrameTypeAREQ:
		return "AREQ"
	case FrameTypeSRSP:
		return "SRSP"
	default:
		return fmt.Sprintf("reserved_%d", uint8(t))
	}
}

// Subsystem is the 5-bit MT functional-area tag in an MT header. Numeric
// values follow the TI MT wire convention, not enumeration order: RPC_ERROR
// is subsystem 0 (it shares CMD0 space with the SRSP type tag rather than
// naming a real functional area), and ZGP is 0x15.
type Subsystem uint8

const (
	SubsystemRPCError  Subsystem = 0x00
	SubsystemSYS       Subsystem = 0x01
	SubsystemMAC       Subsystem = 0x02
	SubsystemNWK       Subsystem = 0x03
	SubsystemAF        Subsystem = 0x04
	SubsystemZDO       Subsystem = 0x05
	SubsystemSAPI      Subsystem = 0x06
	SubsystemUTIL      Subsystem = 0x07
	SubsystemAPP       Subsystem = 0x08
	SubsystemAPPConfig Subsystem = 0x0F
	SubsystemZGP       Subsystem = 0x15
)

func (s Subsystem) String() string {
	switch s {
	case SubsystemRPCError:
		return "RPC_ERROR"
	case SubsystemSYS:
		return "SYS"
	case SubsystemMAC:
		return "MAC"
	case SubsystemNWK:
		return "NWK"
	case SubsystemAF:
		return "AF"
	case SubsystemZDO:
		return "ZDO"
	case SubsystemSAPI:
		return "SAPI"
	case SubsystemUTIL:
		return "UTIL"
	case SubsystemAPP:
		return "APP"
	case SubsystemAPPConfig:
		return "APP_CONFIG"
	case SubsystemZGP:
		return "ZGP"
	default:
		return fmt.Sprintf("subsystem_%d", uint8(s))
	}
}

// Header is the immutable 16-bit command header. On the wire it is two
// bytes, CMD0 then CMD1: CMD0 packs (type:3 << 5 | subsystem:5), CMD1 is
// the plain command id. Headers are value types — comparable and hashable
// directly — and every With* method returns a new Header rather than
// mutating the receiver.
//
// CMD0 is transmitted before the id byte: the reference MT frames (e.g.
// the CommandNotRecognized response "FE 03 60 00 ...") only round-trip
// with that ordering.
type Header struct {
	Type      FrameType
	Subsystem Subsystem
	ID        uint8
}

// NewHeader builds a Header from its three fields.
func NewHeader(t FrameType, s Subsystem, id uint8) Header {
	return Header{Type: t, Subsystem: s, ID: id}
}

// cmd0 packs the type and subsystem into the first wire byte.
func (h Header) cmd0() byte { return byte(h.Type&0x07)<<5 | byte(h.Subsystem&0x1F) }

// DecodeHeaderBytes unpacks the two wire bytes (CMD0, CMD1) of a header.
func DecodeHeaderBytes(cmd0, cmd1 byte) Header {
	return Header{
		Type:      FrameType(cmd0 >> 5),
		Subsystem: Subsystem(cmd0 & 0x1F),
		ID:        cmd1,
	}
}

// DecodeHeader unpacks a header from its little-endian-stored raw value:
// raw = cmd0 | (id << 8), the inverse of Raw.
func DecodeHeader(raw uint16) Header {
	return DecodeHeaderBytes(byte(raw), byte(raw>>8))
}

// Raw returns the header's little-endian-stored value: cmd0 | (id << 8).
// This is the u16 a header occupies when carried as a little-endian field
// (such as CommandNotRecognized's RequestHeader); Header values themselves
// are compared and used as map keys directly.
func (h Header) Raw() uint16 {
	return uint16(h.cmd0()) | uint16(h.ID)<<8
}

// Bytes returns the two wire bytes in transmission order: CMD0, then id.
func (h Header) Bytes() [2]byte {
	return [2]byte{h.cmd0(), h.ID}
}

// WithType returns a copy of h with Type replaced.
func (h Header) WithType(t FrameType) Header { h.Type = t; return h }

// WithSubsystem returns a copy of h with Subsystem replaced.
func (h Header) WithSubsystem(s Subsystem) Header { h.Subsystem = s; return h }

// WithID returns a copy of h with ID replaced.
func (h Header) WithID(id uint8) Header { h.ID = id; return h }

func (h Header) String() string {
	return fmt.Sprintf("%s.%s[0x%02X]", h.Type, h.Subsystem, h.ID)
}
