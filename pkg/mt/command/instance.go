// Package command implements typed command instances bound against a
// catalog class: construction (complete or partial), (de)serialization to
// and from a general MT frame, and the partial-order match relation the
// correlation core uses to resolve listeners against inbound frames.
package command

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/urmzd/go-znp/pkg/mt"
	"github.com/urmzd/go-znp/pkg/mt/catalog"
	"github.com/urmzd/go-znp/pkg/mt/types"
)

// Instance is an immutable, typed value of a command class: a subset (for
// partial instances) or the full set (for complete instances) of its
// schema's fields, each holding a concrete Go value accepted by its
// field's codec.
//
// Instances are built once by New or FromFrame and never mutated
// afterwards; With returns a new Instance rather than modifying the
// receiver.
type Instance struct {
	class   *catalog.Class
	partial bool
	fields  map[string]any
}

// ErrUnknownField is returned when a value is supplied for a name the
// class's schema does not declare.
var ErrUnknownField = fmt.Errorf("field not present in command schema")

// ErrMissingField is returned by New (for a complete instance) when a
// required schema field has no value.
var ErrMissingField = fmt.Errorf("required field missing from command instance")

// ErrFieldValue wraps a codec error with the field name that produced it.
var ErrFieldValue = fmt.Errorf("invalid value for command field")

// ErrClassMismatch is returned when an operation mixes instances or frames
// belonging to different classes.
var ErrClassMismatch = fmt.Errorf("command class mismatch")

// ErrTrailingBytes is returned by FromFrame when payload bytes remain
// after every schema field has been consumed and ignoreUnparsed is false.
var ErrTrailingBytes = fmt.Errorf("unparsed trailing bytes in frame payload")

// New constructs a complete instance of class: every schema field must be
// present in values, and each value is coerced to its field type by
// round-tripping through the field's codec. Coercion means an instance
// built from a caller-supplied uint8 compares equal to the same instance
// decoded off the wire, where integer fields always carry uint64, enums
// carry EnumValue, and so on.
func New(class *catalog.Class, values map[string]any) (Instance, error) {
	return build(class, values, false)
}

// NewPartial constructs a partial instance: only the fields present in
// values are required to validate, and the result is usable only as a
// match pattern (Matches), never with ToFrame.
func NewPartial(class *catalog.Class, values map[string]any) (Instance, error) {
	return build(class, values, true)
}

func build(class *catalog.Class, values map[string]any, partial bool) (Instance, error) {
	fields := make(map[string]any, len(values))
	for name, v := range values {
		param, ok := class.Schema.Find(name)
		if !ok {
			return Instance{}, fmt.Errorf("%w: %q in %s", ErrUnknownField, name, class.Name)
		}
		canonical, err := coerce(param.Codec, v)
		if err != nil {
			return Instance{}, fmt.Errorf("%w: %s.%s: %v", ErrFieldValue, class.Name, name, err)
		}
		fields[name] = canonical
	}

	if !partial {
		for _, param := range class.Schema.Params {
			if _, ok := fields[param.Name]; !ok {
				return Instance{}, fmt.Errorf("%w: %s.%s", ErrMissingField, class.Name, param.Name)
			}
		}
	}

	return Instance{class: class, partial: partial, fields: fields}, nil
}

// coerce validates v against codec and converts it to the codec's
// canonical decoded form, so that field values compare equal regardless of
// whether the instance was constructed by a caller or decoded from a
// frame. Matching and structural equality both depend on this.
func coerce(codec types.Codec, v any) (any, error) {
	b, err := codec.Serialize(v)
	if err != nil {
		return nil, err
	}
	canonical, rest, err := codec.Deserialize(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("value did not round-trip cleanly: %d leftover byte(s)", len(rest))
	}
	return canonical, nil
}

// Class returns the command class this instance belongs to.
func (i Instance) Class() *catalog.Class { return i.class }

// IsPartial reports whether this instance may be missing schema fields.
func (i Instance) IsPartial() bool { return i.partial }

// Get returns the value bound to name, if present.
func (i Instance) Get(name string) (any, bool) {
	v, ok := i.fields[name]
	return v, ok
}

// With returns a new instance with name bound to value, leaving the
// receiver untouched. The result is re-validated like New/NewPartial.
func (i Instance) With(name string, value any) (Instance, error) {
	next := make(map[string]any, len(i.fields)+1)
	for k, v := range i.fields {
		next[k] = v
	}
	next[name] = value
	return build(i.class, next, i.partial)
}

// ToFrame serializes a complete instance to a general MT frame. It
// returns ErrMissingField-wrapped errors if called on a partial instance.
func (i Instance) ToFrame() (mt.GeneralFrame, error) {
	if i.partial {
		return mt.GeneralFrame{}, fmt.Errorf("%w: cannot serialize a partial instance of %s", ErrMissingField, i.class.Name)
	}

	var payload []byte
	for _, param := range i.class.Schema.Params {
		v, ok := i.fields[param.Name]
		if !ok {
			return mt.GeneralFrame{}, fmt.Errorf("%w: %s.%s", ErrMissingField, i.class.Name, param.Name)
		}
		b, err := param.Codec.Serialize(v)
		if err != nil {
			return mt.GeneralFrame{}, fmt.Errorf("%w: %s.%s: %v", ErrFieldValue, i.class.Name, param.Name, err)
		}
		payload = append(payload, b...)
	}

	return mt.NewGeneralFrame(i.class.Header, payload)
}

// FromFrame decodes frame into a complete instance of class. frame's
// header must match the class's header. If ignoreUnparsed is false,
// leftover payload bytes after every field has been consumed is an error;
// some real MT firmware appends undocumented trailing bytes to certain
// responses, so callers that need to tolerate that set it true.
func FromFrame(class *catalog.Class, frame mt.GeneralFrame, ignoreUnparsed bool) (Instance, error) {
	if frame.Header != class.Header {
		return Instance{}, fmt.Errorf("%w: frame header %s does not match class %s (%s)", ErrClassMismatch, frame.Header, class.Name, class.Header)
	}

	fields := make(map[string]any, len(class.Schema.Params))
	rest := frame.Payload
	for _, param := range class.Schema.Params {
		v, next, err := param.Codec.Deserialize(rest)
		if err != nil {
			return Instance{}, fmt.Errorf("%w: %s.%s: %v", ErrFieldValue, class.Name, param.Name, err)
		}
		fields[param.Name] = v
		rest = next
	}

	if len(rest) > 0 && !ignoreUnparsed {
		return Instance{}, fmt.Errorf("%w: %s has %d leftover byte(s)", ErrTrailingBytes, class.Name, len(rest))
	}

	return Instance{class: class, partial: false, fields: fields}, nil
}

// Matches reports whether i is consistent with pattern: same class, and
// every field pattern specifies is present in i with an equal value.
// A partial pattern with no fields matches any instance of
// the same class; a complete instance matches only its own field values.
// This is the partial order the correlation core's listener registry
// resolves against.
func (i Instance) Matches(pattern Instance) bool {
	if i.class != pattern.class {
		return false
	}
	for name, want := range pattern.fields {
		got, ok := i.fields[name]
		if !ok {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// MoreSpecificThan reports whether pattern a constrains at least every
// field b constrains, and at least one more — the strict partial order
// maximal-element deduplication is built on.
func (a Instance) MoreSpecificThan(b Instance) bool {
	if a.class != b.class {
		return false
	}
	if len(a.fields) <= len(b.fields) {
		return false
	}
	for name, want := range b.fields {
		got, ok := a.fields[name]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// Equal reports structural equality: same class and identical field set.
func (a Instance) Equal(b Instance) bool {
	if a.class != b.class || a.partial != b.partial || len(a.fields) != len(b.fields) {
		return false
	}
	for name, want := range a.fields {
		got, ok := b.fields[name]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// Key returns a deterministic string uniquely identifying this instance's
// class and field values, suitable for use as a map key where a
// comparable Go type is needed (field values may include slices, which
// are not themselves comparable).
func (i Instance) Key() string {
	names := make([]string, 0, len(i.fields))
	for name := range i.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	key := i.class.Name
	for _, name := range names {
		key += fmt.Sprintf("|%s=%v", name, i.fields[name])
	}
	return key
}

// valuesEqual compares two field values for equality. Field values may be
// slices (ListCodec produces []any, ShortBytes/LongBytes produce []byte),
// which are not comparable with ==, so this uses reflect.DeepEqual rather
// than risk a runtime panic on an uncomparable dynamic type.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
