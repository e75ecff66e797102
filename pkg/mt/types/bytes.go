package types

import "fmt"

// FixedBytesCodec encodes a fixed-length byte block (EUI64 = 8, security
// keys = 16, etc.) with no length prefix.
type FixedBytesCodec struct {
	Length int
}

func EUI64Codec() FixedBytesCodec { return FixedBytesCodec{Length: 8} }
func KeyCodec() FixedBytesCodec   { return FixedBytesCodec{Length: 16} }

func (c FixedBytesCodec) Serialize(value any) ([]byte, error) {
	b, err := toBytes(value)
	if err != nil {
		return nil, err
	}
	if len(b) != c.Length {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrOutOfRange, c.Length, len(b))
	}
	out := make([]byte, c.Length)
	copy(out, b)
	return out, nil
}

func (c FixedBytesCodec) Deserialize(buf []byte) (any, []byte, error) {
	if len(buf) < c.Length {
		return nil, nil, ErrShortBuffer
	}
	out := make([]byte, c.Length)
	copy(out, buf[:c.Length])
	return out, buf[c.Length:], nil
}

// ShortBytesCodec encodes a byte string prefixed by a single length byte
// (0..255).
type ShortBytesCodec struct{}

func ShortBytes() ShortBytesCodec { return ShortBytesCodec{} }

func (ShortBytesCodec) Serialize(value any) ([]byte, error) {
	b, err := toBytes(value)
	if err != nil {
		return nil, err
	}
	if len(b) > 0xFF {
		return nil, fmt.Errorf("%w: %d bytes exceeds u8 length prefix", ErrOutOfRange, len(b))
	}
	out := make([]byte, 0, len(b)+1)
	out = append(out, byte(len(b)))
	out = append(out, b...)
	return out, nil
}

func (ShortBytesCodec) Deserialize(buf []byte) (any, []byte, error) {
	if len(buf) < 1 {
		return nil, nil, ErrShortBuffer
	}
	n := int(buf[0])
	if len(buf) < 1+n {
		return nil, nil, ErrShortBuffer
	}
	out := make([]byte, n)
	copy(out, buf[1:1+n])
	return out, buf[1+n:], nil
}

// LongBytesCodec encodes a byte string prefixed by a little-endian u16
// length.
type LongBytesCodec struct{}

func LongBytes() LongBytesCodec { return LongBytesCodec{} }

func (LongBytesCodec) Serialize(value any) ([]byte, error) {
	b, err := toBytes(value)
	if err != nil {
		return nil, err
	}
	if len(b) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d bytes exceeds u16 length prefix", ErrOutOfRange, len(b))
	}
	n := len(b)
	out := make([]byte, 0, n+2)
	out = append(out, byte(n), byte(n>>8))
	out = append(out, b...)
	return out, nil
}

func (LongBytesCodec) Deserialize(buf []byte) (any, []byte, error) {
	if len(buf) < 2 {
		return nil, nil, ErrShortBuffer
	}
	n := int(buf[0]) | int(buf[1])<<8
	if len(buf) < 2+n {
		return nil, nil, ErrShortBuffer
	}
	out := make([]byte, n)
	copy(out, buf[2:2+n])
	return out, buf[2+n:], nil
}

// toBytes coerces any bytes-like value ([]byte, string) into a []byte for
// the ShortBytes/LongBytes codecs.
func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: %T is not bytes-like", ErrWrongGoType, value)
	}
}
