package catalog

import (
	"fmt"

	"github.com/urmzd/go-znp/pkg/mt"
)

// ClassKind distinguishes the three concrete shapes a CommandDef
// materializes.
type ClassKind int

const (
	KindReq ClassKind = iota
	KindRsp
	KindCallback
)

func (k ClassKind) String() string {
	switch k {
	case KindReq:
		return "Req"
	case KindRsp:
		return "Rsp"
	case KindCallback:
		return "Callback"
	default:
		return "Unknown"
	}
}

// Class is a materialized command class: a concrete, named, typed command
// shape with its own header and schema. Req and Rsp classes carry
// back-references to one another.
type Class struct {
	Name      string // e.g. "SYS.Ping.Req"
	Subsystem mt.Subsystem
	Header    mt.Header
	Schema    *Schema
	Kind      ClassKind
	Def       *CommandDef
	Req       *Class // set on SREQ Rsp classes, pointing at their Req; nil otherwise
	Rsp       *Class // set on SREQ Req classes, pointing at their Rsp; nil otherwise
}

// CommandDef is a declarative command definition attached to a subsystem:
// a type (SREQ/AREQ/SRSP-implied), numeric id, and
// optional request/response/callback schemas.
type CommandDef struct {
	Name       string
	Subsystem  mt.Subsystem
	ID         uint8
	Type       mt.FrameType // FrameTypeSREQ or FrameTypeAREQ (FrameTypeSRSP for the Rsp-only entry)
	ReqSchema  *Schema      // present for SREQ and AREQ-with-request
	RspSchema  *Schema      // present for SREQ and the Rsp-only entry
	CbSchema   *Schema      // present for AREQ-with-callback
	rspOnly    bool         // true only for the distinguished CommandNotRecognized entry

	req *Class
	rsp *Class
	cb  *Class
}

// NewSREQDef declares a synchronous request/response pair.
func NewSREQDef(name string, subsystem mt.Subsystem, id uint8, reqSchema, rspSchema *Schema) *CommandDef {
	return &CommandDef{Name: name, Subsystem: subsystem, ID: id, Type: mt.FrameTypeSREQ, ReqSchema: reqSchema, RspSchema: rspSchema}
}

// NewAREQRequestDef declares an asynchronous, outbound-only request (no
// response is ever sent back).
func NewAREQRequestDef(name string, subsystem mt.Subsystem, id uint8, reqSchema *Schema) *CommandDef {
	return &CommandDef{Name: name, Subsystem: subsystem, ID: id, Type: mt.FrameTypeAREQ, ReqSchema: reqSchema}
}

// NewAREQCallbackDef declares an asynchronous inbound callback.
func NewAREQCallbackDef(name string, subsystem mt.Subsystem, id uint8, cbSchema *Schema) *CommandDef {
	return &CommandDef{Name: name, Subsystem: subsystem, ID: id, Type: mt.FrameTypeAREQ, CbSchema: cbSchema}
}

// NewRspOnlyDef declares the single distinguished entry with only an Rsp:
// RPC_ERROR.CommandNotRecognized.
func NewRspOnlyDef(name string, subsystem mt.Subsystem, id uint8, rspSchema *Schema) *CommandDef {
	return &CommandDef{Name: name, Subsystem: subsystem, ID: id, Type: mt.FrameTypeSRSP, RspSchema: rspSchema, rspOnly: true}
}

// materialize builds the Req/Rsp/Callback classes for this definition and
// wires their back-references. Called once per definition, by New.
func (d *CommandDef) materialize() error {
	switch {
	case d.rspOnly:
		rspHeader := mt.NewHeader(mt.FrameTypeSRSP, d.Subsystem, d.ID)
		d.rsp = &Class{Name: d.Name + ".Rsp", Subsystem: d.Subsystem, Header: rspHeader, Schema: d.RspSchema, Kind: KindRsp, Def: d}
		return nil

	case d.Type == mt.FrameTypeSREQ:
		if d.ReqSchema == nil || d.RspSchema == nil {
			return fmt.Errorf("%w: SREQ %s must declare both req and rsp schemas", ErrInvalidSchema, d.Name)
		}
		reqHeader := mt.NewHeader(mt.FrameTypeSREQ, d.Subsystem, d.ID)
		rspHeader := mt.NewHeader(mt.FrameTypeSRSP, d.Subsystem, d.ID)
		req := &Class{Name: d.Name + ".Req", Subsystem: d.Subsystem, Header: reqHeader, Schema: d.ReqSchema, Kind: KindReq, Def: d}
		rsp := &Class{Name: d.Name + ".Rsp", Subsystem: d.Subsystem, Header: rspHeader, Schema: d.RspSchema, Kind: KindRsp, Def: d}
		req.Rsp = rsp
		rsp.Req = req
		d.req, d.rsp = req, rsp
		return nil

	case d.Type == mt.FrameTypeAREQ:
		hasReq := d.ReqSchema != nil
		hasCb := d.CbSchema != nil
		if hasReq == hasCb {
			return fmt.Errorf("%w: AREQ %s must declare exactly one of req or callback schema", ErrInvalidSchema, d.Name)
		}
		header := mt.NewHeader(mt.FrameTypeAREQ, d.Subsystem, d.ID)
		if hasReq {
			d.req = &Class{Name: d.Name + ".Req", Subsystem: d.Subsystem, Header: header, Schema: d.ReqSchema, Kind: KindReq, Def: d}
		} else {
			d.cb = &Class{Name: d.Name + ".Callback", Subsystem: d.Subsystem, Header: header, Schema: d.CbSchema, Kind: KindCallback, Def: d}
		}
		return nil

	default:
		return fmt.Errorf("%w: %s has unsupported type %s", ErrInvalidSchema, d.Name, d.Type)
	}
}

// ReqClass returns the materialized Req class, if any.
func (d *CommandDef) ReqClass() *Class { return d.req }

// RspClass returns the materialized Rsp class, if any.
func (d *CommandDef) RspClass() *Class { return d.rsp }

// CallbackClass returns the materialized Callback class, if any.
func (d *CommandDef) CallbackClass() *Class { return d.cb }
