package catalog

import (
	"testing"

	"github.com/urmzd/go-znp/pkg/mt"
)

func TestDefault_BuildsWithoutError(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default(): %v", err)
	}
	if cat.Len() == 0 {
		t.Fatal("expected a non-empty catalog")
	}
}

func TestDefault_HeadersAreUnique(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default(): %v", err)
	}
	seen := make(map[mt.Header]string)
	for _, class := range cat.Classes() {
		if other, ok := seen[class.Header]; ok {
			t.Fatalf("header %s used by both %s and %s", class.Header, other, class.Name)
		}
		seen[class.Header] = class.Name
	}
}

func TestDefault_SREQHasMatchingRspAndBackReferences(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default(): %v", err)
	}
	req, ok := cat.ByName("SYS.Ping.Req")
	if !ok {
		t.Fatal("expected SYS.Ping.Req in catalog")
	}
	if req.Header.Type != mt.FrameTypeSREQ {
		t.Fatalf("Req header type = %s, want SREQ", req.Header.Type)
	}
	if req.Rsp == nil || req.Rsp.Header.Type != mt.FrameTypeSRSP {
		t.Fatal("expected Req.Rsp to be set with SRSP header type")
	}
	if req.Rsp.Req != req {
		t.Fatal("expected Rsp.Req to point back at Req")
	}
	if req.Header.Subsystem != req.Rsp.Header.Subsystem {
		t.Fatal("Req and Rsp must share a subsystem")
	}
}

func TestDefault_AREQHasExactlyOneOfReqXorCallback(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default(): %v", err)
	}

	resetReq, ok := cat.ByName("SYS.ResetReq.Req")
	if !ok {
		t.Fatal("expected SYS.ResetReq.Req in catalog")
	}
	if resetReq.Header.Type != mt.FrameTypeAREQ {
		t.Fatal("expected AREQ type")
	}
	if resetReq.Def.CallbackClass() != nil {
		t.Fatal("AREQ request definition must not also have a Callback class")
	}

	resetInd, ok := cat.ByName("SYS.ResetInd.Callback")
	if !ok {
		t.Fatal("expected SYS.ResetInd.Callback in catalog")
	}
	if resetInd.Header.Type != mt.FrameTypeAREQ {
		t.Fatal("expected AREQ type")
	}
	if resetInd.Def.ReqClass() != nil {
		t.Fatal("AREQ callback definition must not also have a Req class")
	}
}

func TestDefault_CommandNotRecognizedIsRspOnly(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default(): %v", err)
	}
	_, hasReq := cat.ByName("RPC_ERROR.CommandNotRecognized.Req")
	if hasReq {
		t.Fatal("CommandNotRecognized must not have a Req class")
	}
	rsp, ok := cat.ByName("RPC_ERROR.CommandNotRecognized.Rsp")
	if !ok {
		t.Fatal("expected RPC_ERROR.CommandNotRecognized.Rsp in catalog")
	}
	if rsp.Header.Type != mt.FrameTypeSRSP || rsp.Header.Subsystem != mt.SubsystemRPCError || rsp.Header.ID != 0x00 {
		t.Fatalf("unexpected header %s", rsp.Header)
	}
}

func TestNewSchema_RejectsReservedAndInvalidNames(t *testing.T) {
	if _, err := NewSchema(P("type", nil, "")); err == nil {
		t.Fatal("expected 'type' (a Go keyword) to be rejected")
	}
	if _, err := NewSchema(P("123bad", nil, "")); err == nil {
		t.Fatal("expected invalid identifier to be rejected")
	}
	if _, err := NewSchema(P("Ok", nil, ""), P("Ok", nil, "")); err == nil {
		t.Fatal("expected duplicate parameter name to be rejected")
	}
}

func TestNew_RejectsDuplicateHeaders(t *testing.T) {
	// Two SREQ defs sharing a subsystem+id produce identical Req headers.
	a := NewSREQDef("A", mt.SubsystemSYS, 0x01, schemaMust(NewSchema()), schemaMust(NewSchema()))
	c := NewSREQDef("C", mt.SubsystemSYS, 0x01, schemaMust(NewSchema()), schemaMust(NewSchema()))
	if _, err := New(a, c); err == nil {
		t.Fatal("expected duplicate header to be rejected")
	}
}
