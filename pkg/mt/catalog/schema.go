// Package catalog holds the declarative description of MT commands
// (organized by subsystem) and materializes the Req/Rsp/Callback classes
// the command package binds typed instances against.
package catalog

import (
	"fmt"
	"go/token"

	"github.com/urmzd/go-znp/pkg/mt/types"
)

// Param is one named, typed field in a command schema.
type Param struct {
	Name        string
	Codec       types.Codec
	Description string
}

// Schema is an ordered list of parameters.
type Schema struct {
	Params []Param
}

// NewSchema validates the parameter names (must be valid Go identifiers,
// not keywords) and returns a Schema.
func NewSchema(params ...Param) (*Schema, error) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if !token.IsIdentifier(p.Name) {
			return nil, fmt.Errorf("%w: %q is not a valid identifier", ErrInvalidSchema, p.Name)
		}
		if token.IsKeyword(p.Name) {
			return nil, fmt.Errorf("%w: %q collides with a reserved identifier", ErrInvalidSchema, p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidSchema, p.Name)
		}
		seen[p.Name] = true
	}
	return &Schema{Params: params}, nil
}

// Names returns the schema's parameter names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Name
	}
	return out
}

// Find returns the parameter with the given name, if any.
func (s *Schema) Find(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ErrInvalidSchema is returned by NewSchema and catalog validation for
// malformed schemas.
var ErrInvalidSchema = fmt.Errorf("invalid command schema")

// P is a small constructor helper for building Param lists tersely.
func P(name string, codec types.Codec, description string) Param {
	return Param{Name: name, Codec: codec, Description: description}
}
