package znp

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/go-znp/pkg/mt/catalog"
	"github.com/urmzd/go-znp/pkg/mt/command"
	"github.com/urmzd/go-znp/pkg/mt/types"
	"github.com/urmzd/go-znp/pkg/znp/config"
	"github.com/urmzd/go-znp/pkg/znp/correlation"
)

// endpointDesc is one local AF endpoint registered during startup.
type endpointDesc struct {
	Endpoint      uint8
	ProfileID     uint16
	DeviceID      uint16
	DeviceVersion uint8
}

// defaultEndpoints are the five local endpoints registered with the radio
// on every bring-up: the primary ZHA endpoint plus the auxiliary profile
// endpoints coordinators conventionally expose.
var defaultEndpoints = []endpointDesc{
	{Endpoint: 1, ProfileID: 0x0104, DeviceID: 0x0005, DeviceVersion: 0x00},
	{Endpoint: 2, ProfileID: 0x0101, DeviceID: 0x0005, DeviceVersion: 0x00},
	{Endpoint: 3, ProfileID: 0x0105, DeviceID: 0x0005, DeviceVersion: 0x00},
	{Endpoint: 4, ProfileID: 0x0107, DeviceID: 0x0005, DeviceVersion: 0x00},
	{Endpoint: 5, ProfileID: 0x0108, DeviceID: 0x0005, DeviceVersion: 0x00},
}

// softReset is SYS.ResetReq's Type value for a soft (stack-only) reset.
const softReset uint8 = 1

// RunStartup drives the radio bring-up sequence against core, in order:
// a soft reset awaited through its reset indication, TX power application
// when configured, an active-endpoints query for the coordinator itself,
// registration of the five default AF endpoints, and BDB commissioning for
// the selected modes. A NoNetwork commissioning status is tolerated: a
// coordinator that has not formed a network yet reports it from network
// steering, and forming the network is autoForm's job, not steering's.
func RunStartup(ctx context.Context, core *correlation.Core, cat *catalog.Catalog, cfg config.Config, autoForm bool) error {
	if err := resetRadio(ctx, core, cat); err != nil {
		return err
	}

	if cfg.TxPower != nil {
		if err := applyTxPower(core, cat, *cfg.TxPower); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := queryActiveEndpoints(core, cat); err != nil {
		return err
	}

	for _, ep := range defaultEndpoints {
		if err := registerEndpoint(core, cat, ep); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	modes := []uint64{catalog.BDBCommissioningModeNwkSteering}
	if autoForm {
		modes = []uint64{
			catalog.BDBCommissioningModeNwkFormation,
			catalog.BDBCommissioningModeNwkSteering,
		}
	}
	for _, mode := range modes {
		if err := startCommissioning(core, cat, mode); err != nil {
			return err
		}
	}

	return nil
}

// resetRadio issues the asynchronous SYS.ResetReq and awaits the
// SYS.ResetInd callback the radio emits once it is back up. The callback
// listener is registered before the request is sent, so a fast radio
// cannot slip its indication past the waiter.
func resetRadio(ctx context.Context, core *correlation.Core, cat *catalog.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	reqClass, ok := cat.ByName("SYS.ResetReq.Req")
	if !ok {
		return fmt.Errorf("catalog is missing SYS.ResetReq.Req")
	}
	indClass, ok := cat.ByName("SYS.ResetInd.Callback")
	if !ok {
		return fmt.Errorf("catalog is missing SYS.ResetInd.Callback")
	}

	req, err := command.New(reqClass, map[string]any{"Type": softReset})
	if err != nil {
		return err
	}

	_, ind, err := core.RequestCallbackRsp(req, nil, indClass, nil)
	if err != nil {
		return fmt.Errorf("reset radio: %w", err)
	}

	if rev, ok := ind.Get("TransportRev"); ok {
		log.Info().Interface("transport_rev", rev).Msg("radio reset complete")
	}
	return nil
}

// applyTxPower issues SYS.SetTxPower with the configured dBm value. The
// radio echoes the power it actually applied, which may be clamped to the
// nearest supported level; the echo is logged, not enforced.
func applyTxPower(core *correlation.Core, cat *catalog.Catalog, dBm int) error {
	class, ok := cat.ByName("SYS.SetTxPower.Req")
	if !ok {
		return fmt.Errorf("catalog is missing SYS.SetTxPower.Req")
	}

	req, err := command.New(class, map[string]any{"TxPower": uint8(int8(dBm))})
	if err != nil {
		return err
	}

	rsp, err := core.Request(req, nil)
	if err != nil {
		return fmt.Errorf("set tx power: %w", err)
	}
	if applied, ok := rsp.Get("TxPower"); ok {
		log.Info().Int("requested_dbm", dBm).Interface("applied", applied).Msg("tx power configured")
	}
	return nil
}

func queryActiveEndpoints(core *correlation.Core, cat *catalog.Catalog) error {
	class, ok := cat.ByName("ZDO.ActiveEpReq.Req")
	if !ok {
		return fmt.Errorf("catalog is missing ZDO.ActiveEpReq.Req")
	}

	req, err := command.New(class, map[string]any{
		"DstAddr":           uint16(0x0000),
		"NwkAddrOfInterest": uint16(0x0000),
	})
	if err != nil {
		return err
	}

	if _, err := core.Request(req, map[string]any{"Status": uint8(0)}); err != nil {
		return fmt.Errorf("query active endpoints: %w", err)
	}
	return nil
}

func registerEndpoint(core *correlation.Core, cat *catalog.Catalog, ep endpointDesc) error {
	class, ok := cat.ByName("AF.Register.Req")
	if !ok {
		return fmt.Errorf("catalog is missing AF.Register.Req")
	}

	req, err := command.New(class, map[string]any{
		"Endpoint":       ep.Endpoint,
		"ProfileId":      ep.ProfileID,
		"DeviceId":       ep.DeviceID,
		"DeviceVersion":  ep.DeviceVersion,
		"LatencyReq":     uint8(0),
		"InClusterList":  []uint16{},
		"OutClusterList": []uint16{},
	})
	if err != nil {
		return err
	}

	if _, err := core.Request(req, map[string]any{"Status": uint8(0)}); err != nil {
		return fmt.Errorf("register endpoint %d: %w", ep.Endpoint, err)
	}
	return nil
}

// startCommissioning starts one BDB commissioning mode and awaits its
// notification. Success, InProgress and NoNetwork statuses all count as
// the mode having run; anything else aborts the startup sequence.
func startCommissioning(core *correlation.Core, cat *catalog.Catalog, mode uint64) error {
	reqClass, ok := cat.ByName("APP_CONFIG.BDBStartCommissioning.Req")
	if !ok {
		return fmt.Errorf("catalog is missing APP_CONFIG.BDBStartCommissioning.Req")
	}
	notifClass, ok := cat.ByName("APP_CONFIG.BDBCommissioningNotification.Callback")
	if !ok {
		return fmt.Errorf("catalog is missing APP_CONFIG.BDBCommissioningNotification.Callback")
	}

	req, err := command.New(reqClass, map[string]any{"Mode": mode})
	if err != nil {
		return err
	}

	_, notif, err := core.RequestCallbackRsp(req, map[string]any{"Status": uint8(0)}, notifClass, nil)
	if err != nil {
		return fmt.Errorf("start commissioning mode %#x: %w", mode, err)
	}

	raw, ok := notif.Get("Status")
	if !ok {
		return fmt.Errorf("commissioning notification carried no status")
	}
	status, ok := raw.(types.EnumValue)
	if !ok {
		return fmt.Errorf("commissioning notification status has unexpected type %T", raw)
	}

	switch status.Raw {
	case catalog.BDBCommissioningStatusSuccess, catalog.BDBCommissioningStatusInProgress:
		return nil
	case catalog.BDBCommissioningStatusNoNetwork:
		log.Info().Uint64("mode", mode).Msg("commissioning reported no network, continuing")
		return nil
	default:
		return fmt.Errorf("commissioning mode %#x failed with status %s", mode, status)
	}
}
