package command

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/urmzd/go-znp/pkg/mt/catalog"
)

// TestProperty_NVWriteRoundTrip exercises SYS.NVWrite.Req with
// rapid-generated field values: any complete instance that serializes to
// a frame must deserialize back to an equal instance.
func TestProperty_NVWriteRoundTrip(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default(): %v", err)
	}
	class, ok := cat.ByName("SYS.NVWrite.Req")
	if !ok {
		t.Fatal("expected SYS.NVWrite.Req in catalog")
	}

	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.SliceOfN(rapid.Byte(), 0, 200).Draw(rt, "value")

		inst, err := New(class, map[string]any{
			"SysId":  rapid.Uint8().Draw(rt, "sysId"),
			"ItemId": rapid.Uint16().Draw(rt, "itemId"),
			"SubId":  rapid.Uint16().Draw(rt, "subId"),
			"Offset": rapid.Uint16().Draw(rt, "offset"),
			"Value":  value,
		})
		if err != nil {
			rt.Fatalf("New: %v", err)
		}

		frame, err := inst.ToFrame()
		if err != nil {
			rt.Fatalf("ToFrame: %v", err)
		}

		back, err := FromFrame(class, frame, false)
		if err != nil {
			rt.Fatalf("FromFrame: %v", err)
		}

		if !back.Equal(inst) {
			rt.Fatalf("round trip mismatch: got %+v, want %+v", back.fields, inst.fields)
		}
	})
}

// TestProperty_PartialMatchesItsOwnCompletion asserts that any complete
// instance always matches the partial pattern built from a subset of its
// own field values — the base case the correlation core's listener
// resolution depends on.
func TestProperty_PartialMatchesItsOwnCompletion(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default(): %v", err)
	}
	class, ok := cat.ByName("ZDO.ActiveEpRsp.Callback")
	if !ok {
		t.Fatal("expected ZDO.ActiveEpRsp.Callback in catalog")
	}

	rapid.Check(t, func(rt *rapid.T) {
		status := rapid.Uint8().Draw(rt, "status")
		nwkAddr := rapid.Uint16().Draw(rt, "nwkAddr")
		srcAddr := rapid.Uint16().Draw(rt, "srcAddr")
		eps := rapid.SliceOfN(rapid.Uint8(), 0, 16).Draw(rt, "eps")

		complete, err := New(class, map[string]any{
			"SrcAddr":      srcAddr,
			"Status":       status,
			"NwkAddr":      nwkAddr,
			"ActiveEpList": eps,
		})
		if err != nil {
			rt.Fatalf("New: %v", err)
		}

		pattern, err := NewPartial(class, map[string]any{"Status": status})
		if err != nil {
			rt.Fatalf("NewPartial: %v", err)
		}

		if !complete.Matches(pattern) {
			rt.Fatalf("expected instance to match a partial pattern drawn from its own fields")
		}
	})
}
