package catalog

import (
	"fmt"

	"github.com/urmzd/go-znp/pkg/mt"
)

// Catalog is the materialized set of command classes, indexed by header
// for constant-time inbound dispatch.
type Catalog struct {
	defs     []*CommandDef
	byHeader map[mt.Header]*Class
	byName   map[string]*Class
}

// New builds and validates a Catalog from a set of definitions. Validation
// enforces header uniqueness, schema identifier validity (already checked
// by NewSchema), and the SREQ/AREQ/SRSP shape rules.
func New(defs ...*CommandDef) (*Catalog, error) {
	c := &Catalog{
		defs:     defs,
		byHeader: make(map[mt.Header]*Class),
		byName:   make(map[string]*Class),
	}

	rspOnlyCount := 0
	for _, d := range defs {
		if d.rspOnly {
			rspOnlyCount++
		}
		if err := d.materialize(); err != nil {
			return nil, err
		}
		for _, class := range []*Class{d.req, d.rsp, d.cb} {
			if class == nil {
				continue
			}
			if existing, ok := c.byHeader[class.Header]; ok {
				return nil, fmt.Errorf("%w: header %s used by both %s and %s", ErrDuplicateHeader, class.Header, existing.Name, class.Name)
			}
			c.byHeader[class.Header] = class
			c.byName[class.Name] = class
		}
	}

	if rspOnlyCount > 1 {
		return nil, fmt.Errorf("%w: expected exactly one Rsp-only entry (CommandNotRecognized), found %d", ErrInvalidSchema, rspOnlyCount)
	}

	return c, nil
}

// ErrDuplicateHeader is returned when two classes in the same catalog
// would share a header.
var ErrDuplicateHeader = fmt.Errorf("duplicate command header in catalog")

// ErrUnknownHeader is returned by Lookup when no class claims the header.
var ErrUnknownHeader = fmt.Errorf("unknown command header")

// Lookup maps a wire header to its command class.
func (c *Catalog) Lookup(header mt.Header) (*Class, error) {
	class, ok := c.byHeader[header]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, header)
	}
	return class, nil
}

// ByName looks up a materialized class by its dotted name (e.g.
// "SYS.Ping.Req"), primarily useful for tests and diagnostics.
func (c *Catalog) ByName(name string) (*Class, bool) {
	class, ok := c.byName[name]
	return class, ok
}

// Classes returns every materialized class in the catalog, for
// introspection (pkg/diag) and tests.
func (c *Catalog) Classes() []*Class {
	out := make([]*Class, 0, len(c.byHeader))
	for _, class := range c.byHeader {
		out = append(out, class)
	}
	return out
}

// Len returns the number of materialized classes (Req+Rsp+Callback
// entries combined) in the catalog.
func (c *Catalog) Len() int { return len(c.byHeader) }
