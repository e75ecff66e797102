// Package types implements the primitive wire codecs used by MT command
// schemas: fixed-width little-endian integers, length-prefixed and
// fixed-length byte strings, typed lists, enums with unknown-value
// fallback, and address variants.
package types

import (
	"fmt"
)

// Codec is implemented by every primitive MT field type. Serialize encodes
// a Go value to its wire bytes; Deserialize decodes a value from the front
// of buf and returns the unconsumed remainder.
type Codec interface {
	Serialize(value any) ([]byte, error)
	Deserialize(buf []byte) (value any, rest []byte, err error)
}

// ErrOutOfRange is returned when a value does not fit the declared width.
var ErrOutOfRange = fmt.Errorf("value out of range for type")

// ErrShortBuffer is returned when Deserialize runs out of bytes mid-field.
var ErrShortBuffer = fmt.Errorf("buffer too short to deserialize field")

// ErrWrongGoType is returned when Serialize receives a value of the wrong
// Go type for the target wire type.
var ErrWrongGoType = fmt.Errorf("value has wrong Go type for field")
