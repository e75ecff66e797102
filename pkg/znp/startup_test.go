package znp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/urmzd/go-znp/pkg/mt"
	"github.com/urmzd/go-znp/pkg/mt/catalog"
	"github.com/urmzd/go-znp/pkg/mt/command"
	"github.com/urmzd/go-znp/pkg/mt/types"
	"github.com/urmzd/go-znp/pkg/znp/config"
	"github.com/urmzd/go-znp/pkg/znp/correlation"
)

// scriptedRadio plays the device side of the startup sequence: it decodes
// every frame the core sends and dispatches the replies a real ZNP
// coordinator would emit.
type scriptedRadio struct {
	t    *testing.T
	cat  *catalog.Catalog
	core *correlation.Core

	mu   sync.Mutex
	sent []command.Instance
}

func (r *scriptedRadio) Send(frame mt.GeneralFrame) error {
	class, err := r.cat.Lookup(frame.Header)
	if err != nil {
		return err
	}
	inst, err := command.FromFrame(class, frame, false)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.sent = append(r.sent, inst)
	r.mu.Unlock()

	r.reply(inst)
	return nil
}

func (r *scriptedRadio) dispatch(name string, fields map[string]any) {
	class, ok := r.cat.ByName(name)
	if !ok {
		r.t.Errorf("scripted radio: no class %s", name)
		return
	}
	inst, err := command.New(class, fields)
	if err != nil {
		r.t.Errorf("scripted radio: build %s: %v", name, err)
		return
	}
	r.core.Dispatch(inst)
}

func (r *scriptedRadio) reply(req command.Instance) {
	switch req.Class().Name {
	case "SYS.ResetReq.Req":
		r.dispatch("SYS.ResetInd.Callback", map[string]any{
			"Reason":       uint8(0),
			"TransportRev": uint8(2),
			"ProductId":    uint8(1),
			"MajorRel":     uint8(2),
			"MinorRel":     uint8(7),
			"HwRev":        uint8(1),
		})
	case "SYS.SetTxPower.Req":
		power, _ := req.Get("TxPower")
		r.dispatch("SYS.SetTxPower.Rsp", map[string]any{"TxPower": power})
	case "ZDO.ActiveEpReq.Req":
		r.dispatch("ZDO.ActiveEpReq.Rsp", map[string]any{"Status": uint8(0)})
	case "AF.Register.Req":
		r.dispatch("AF.Register.Rsp", map[string]any{"Status": uint8(0)})
	case "APP_CONFIG.BDBStartCommissioning.Req":
		r.dispatch("APP_CONFIG.BDBStartCommissioning.Rsp", map[string]any{"Status": uint8(0)})
		r.dispatch("APP_CONFIG.BDBCommissioningNotification.Callback", map[string]any{
			"Status":         catalog.BDBCommissioningStatusNoNetwork,
			"Mode":           catalog.BDBCommissioningModeNwkSteering,
			"RemainingModes": uint8(0),
		})
	default:
		r.t.Errorf("scripted radio: unexpected request %s", req.Class().Name)
	}
}

func newStartupFixture(t *testing.T) (*scriptedRadio, *correlation.Core, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default(): %v", err)
	}
	radio := &scriptedRadio{t: t, cat: cat}
	core, err := correlation.New(cat, radio, time.Second)
	if err != nil {
		t.Fatalf("correlation.New: %v", err)
	}
	radio.core = core
	return radio, core, cat
}

// TestRunStartup_SequenceOrder checks the bring-up sequence end to end:
// soft reset awaited via its indication, the active-endpoints query, five
// AF endpoint registrations, and network-steering commissioning whose
// NoNetwork outcome is tolerated.
func TestRunStartup_SequenceOrder(t *testing.T) {
	radio, core, cat := newStartupFixture(t)

	cfg := config.Config{SREQTimeout: time.Second}
	if err := RunStartup(context.Background(), core, cat, cfg, false); err != nil {
		t.Fatalf("RunStartup: %v", err)
	}

	radio.mu.Lock()
	defer radio.mu.Unlock()

	var names []string
	for _, inst := range radio.sent {
		names = append(names, inst.Class().Name)
	}

	want := []string{
		"SYS.ResetReq.Req",
		"ZDO.ActiveEpReq.Req",
		"AF.Register.Req",
		"AF.Register.Req",
		"AF.Register.Req",
		"AF.Register.Req",
		"AF.Register.Req",
		"APP_CONFIG.BDBStartCommissioning.Req",
	}
	if len(names) != len(want) {
		t.Fatalf("sent %d commands %v, want %d", len(names), names, len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("command %d = %s, want %s (full sequence %v)", i, names[i], want[i], names)
		}
	}

	// The five registrations must cover five distinct endpoints.
	endpoints := make(map[uint64]bool)
	for _, inst := range radio.sent {
		if inst.Class().Name != "AF.Register.Req" {
			continue
		}
		ep, _ := inst.Get("Endpoint")
		endpoints[ep.(uint64)] = true
	}
	if len(endpoints) != 5 {
		t.Fatalf("registered %d distinct endpoints, want 5", len(endpoints))
	}
}

// TestRunStartup_AppliesTxPower checks that a configured tx_power is
// pushed to the radio right after the reset completes.
func TestRunStartup_AppliesTxPower(t *testing.T) {
	radio, core, cat := newStartupFixture(t)

	power := -10
	cfg := config.Config{SREQTimeout: time.Second, TxPower: &power}
	if err := RunStartup(context.Background(), core, cat, cfg, false); err != nil {
		t.Fatalf("RunStartup: %v", err)
	}

	radio.mu.Lock()
	defer radio.mu.Unlock()

	if len(radio.sent) < 2 || radio.sent[1].Class().Name != "SYS.SetTxPower.Req" {
		t.Fatalf("expected SYS.SetTxPower.Req as the second command, got %+v", radio.sent)
	}
	got, _ := radio.sent[1].Get("TxPower")
	if got.(uint64) != uint64(uint8(int8(power))) {
		t.Fatalf("TxPower on the wire = %v, want two's-complement of %d", got, power)
	}
}

// TestRunStartup_AutoFormAddsFormationMode checks that autoForm drives
// network formation before steering.
func TestRunStartup_AutoFormAddsFormationMode(t *testing.T) {
	radio, core, cat := newStartupFixture(t)

	cfg := config.Config{SREQTimeout: time.Second}
	if err := RunStartup(context.Background(), core, cat, cfg, true); err != nil {
		t.Fatalf("RunStartup: %v", err)
	}

	radio.mu.Lock()
	defer radio.mu.Unlock()

	var modes []uint64
	for _, inst := range radio.sent {
		if inst.Class().Name != "APP_CONFIG.BDBStartCommissioning.Req" {
			continue
		}
		mode, _ := inst.Get("Mode")
		bm, ok := mode.(types.BitmapValue)
		if !ok {
			t.Fatalf("Mode field is %T, want BitmapValue", mode)
		}
		modes = append(modes, bm.Raw)
	}
	want := []uint64{catalog.BDBCommissioningModeNwkFormation, catalog.BDBCommissioningModeNwkSteering}
	if len(modes) != len(want) || modes[0] != want[0] || modes[1] != want[1] {
		t.Fatalf("commissioning modes = %v, want %v", modes, want)
	}
}
