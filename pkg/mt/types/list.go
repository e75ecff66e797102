package types

import "fmt"

// ListCodec encodes a length-prefixed list of elements of a uniform
// element Codec. The length prefix is a single byte (0..255); the element
// type is enforced per element.
type ListCodec struct {
	Element Codec
}

func NewListCodec(element Codec) ListCodec { return ListCodec{Element: element} }

func (c ListCodec) Serialize(value any) ([]byte, error) {
	items, err := toSlice(value)
	if err != nil {
		return nil, err
	}
	if len(items) > 0xFF {
		return nil, fmt.Errorf("%w: list of %d elements exceeds u8 count prefix", ErrOutOfRange, len(items))
	}
	out := []byte{byte(len(items))}
	for i, item := range items {
		b, err := c.Element.Serialize(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

func (c ListCodec) Deserialize(buf []byte) (any, []byte, error) {
	if len(buf) < 1 {
		return nil, nil, ErrShortBuffer
	}
	n := int(buf[0])
	rest := buf[1:]
	items := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, next, err := c.Element.Deserialize(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("element %d: %w", i, err)
		}
		items = append(items, v)
		rest = next
	}
	return items, rest, nil
}

// FixedListCodec encodes a list of a fixed, known-in-advance length with no
// count prefix.
type FixedListCodec struct {
	Element Codec
	Length  int
}

func NewFixedListCodec(element Codec, length int) FixedListCodec {
	return FixedListCodec{Element: element, Length: length}
}

func (c FixedListCodec) Serialize(value any) ([]byte, error) {
	items, err := toSlice(value)
	if err != nil {
		return nil, err
	}
	if len(items) != c.Length {
		return nil, fmt.Errorf("%w: expected %d elements, got %d", ErrOutOfRange, c.Length, len(items))
	}
	var out []byte
	for i, item := range items {
		b, err := c.Element.Serialize(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

func (c FixedListCodec) Deserialize(buf []byte) (any, []byte, error) {
	rest := buf
	items := make([]any, 0, c.Length)
	for i := 0; i < c.Length; i++ {
		v, next, err := c.Element.Deserialize(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("element %d: %w", i, err)
		}
		items = append(items, v)
		rest = next
	}
	return items, rest, nil
}

func toSlice(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case []uint64:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, nil
	case []uint8:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, nil
	case []uint16:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, nil
	case []uint32:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a list", ErrWrongGoType, value)
	}
}
