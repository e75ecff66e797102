package types

import "fmt"

// EnumValue is a scalar enumerated value. Unknown raw values deserialize to
// a synthetic variant rather than failing: Name reports
// "unknown_0x<hex>" and Known is false when Raw has no declared name.
type EnumValue struct {
	Raw   uint64
	Name  string
	Known bool
}

func (e EnumValue) String() string {
	if e.Known {
		return e.Name
	}
	return unknownName(e.Raw, e.hexWidth())
}

func (e EnumValue) hexWidth() int {
	switch {
	case e.Raw > 0xFFFFFFFF:
		return 16
	case e.Raw > 0xFFFF:
		return 8
	case e.Raw > 0xFF:
		return 4
	default:
		return 2
	}
}

func unknownName(raw uint64, hexWidth int) string {
	return fmt.Sprintf("unknown_0x%0*X", hexWidth, raw)
}

// EnumCodec wraps a UintCodec of the given width with a name table. Unknown
// raw values never fail; they deserialize to an EnumValue with Known=false.
type EnumCodec struct {
	Width     int
	NamesByID map[uint64]string
	IDsByName map[string]uint64
}

// NewEnumCodec builds an EnumCodec from a map of member names to values at
// the given byte width.
func NewEnumCodec(width int, members map[string]uint64) EnumCodec {
	c := EnumCodec{Width: width, NamesByID: make(map[uint64]string, len(members)), IDsByName: make(map[string]uint64, len(members))}
	for name, id := range members {
		c.NamesByID[id] = name
		c.IDsByName[name] = id
	}
	return c
}

func (c EnumCodec) underlying() UintCodec { return UintCodec{Width: c.Width} }

// Serialize accepts either an EnumValue, a known member name (string), or a
// raw integer value.
func (c EnumCodec) Serialize(value any) ([]byte, error) {
	var raw uint64
	switch v := value.(type) {
	case EnumValue:
		raw = v.Raw
	case string:
		id, ok := c.IDsByName[v]
		if !ok {
			return nil, fmt.Errorf("%w: unknown enum member %q", ErrOutOfRange, v)
		}
		raw = id
	default:
		u, err := toUint64(value)
		if err != nil {
			return nil, err
		}
		raw = u
	}
	return c.underlying().Serialize(raw)
}

func (c EnumCodec) Deserialize(buf []byte) (any, []byte, error) {
	v, rest, err := c.underlying().Deserialize(buf)
	if err != nil {
		return nil, nil, err
	}
	raw := v.(uint64)
	if name, ok := c.NamesByID[raw]; ok {
		return EnumValue{Raw: raw, Name: name, Known: true}, rest, nil
	}
	return EnumValue{Raw: raw, Known: false}, rest, nil
}

// BitmapValue is an opaque bit-flag set. Unknown bits are passed through
// untouched rather than validated; real firmware reports capability and
// flag values (an MTCapabilities of 1625, for one) carrying bits with no
// documented meaning.
type BitmapValue struct {
	Raw uint64
}

// Has reports whether every bit in mask is set in the bitmap.
func (b BitmapValue) Has(mask uint64) bool { return b.Raw&mask == mask }

// BitmapCodec is a UintCodec of the declared width that decodes to a
// BitmapValue instead of a bare uint64.
type BitmapCodec struct {
	Width int
}

func NewBitmapCodec(width int) BitmapCodec { return BitmapCodec{Width: width} }

func (c BitmapCodec) underlying() UintCodec { return UintCodec{Width: c.Width} }

func (c BitmapCodec) Serialize(value any) ([]byte, error) {
	if bv, ok := value.(BitmapValue); ok {
		return c.underlying().Serialize(bv.Raw)
	}
	return c.underlying().Serialize(value)
}

func (c BitmapCodec) Deserialize(buf []byte) (any, []byte, error) {
	v, rest, err := c.underlying().Deserialize(buf)
	if err != nil {
		return nil, nil, err
	}
	return BitmapValue{Raw: v.(uint64)}, rest, nil
}
