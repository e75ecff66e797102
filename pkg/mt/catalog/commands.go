package catalog

import (
	"github.com/urmzd/go-znp/pkg/mt"
	"github.com/urmzd/go-znp/pkg/mt/types"
)

// schemaMust panics on a schema construction error; it is only used for
// the static catalog definitions below, where a bad identifier is a
// programming error caught at init time, not a runtime condition.
func schemaMust(s *Schema, err error) *Schema {
	if err != nil {
		panic(err)
	}
	return s
}

// errorCodeCodec is the ErrorCode enum carried by RPC_ERROR.CommandNotRecognized.
func errorCodeCodec() types.EnumCodec {
	return types.NewEnumCodec(1, map[string]uint64{
		"INVALID_SUBSYSTEM":  0x01,
		"INVALID_COMMAND_ID": 0x02,
		"INVALID_PARAMETER":  0x03,
		"INVALID_LENGTH":     0x04,
	})
}

// BDB commissioning mode bits carried by
// APP_CONFIG.BDBStartCommissioning.Req.Mode and the notification's
// Mode/RemainingModes bitmaps (Z-Stack 3.x BDB).
const (
	BDBCommissioningModeInitiatorTL  uint64 = 0x01
	BDBCommissioningModeNwkSteering  uint64 = 0x02
	BDBCommissioningModeNwkFormation uint64 = 0x04
	BDBCommissioningModeFindBinding  uint64 = 0x08
)

// BDB commissioning status codes reported by
// APP_CONFIG.BDBCommissioningNotification. NO_NETWORK is an expected
// outcome of network steering on a coordinator with no network formed yet,
// not a failure.
const (
	BDBCommissioningStatusSuccess    uint64 = 0x00
	BDBCommissioningStatusInProgress uint64 = 0x01
	BDBCommissioningStatusNoNetwork  uint64 = 0x02
)

func bdbCommissioningStatusCodec() types.EnumCodec {
	return types.NewEnumCodec(1, map[string]uint64{
		"SUCCESS":                    BDBCommissioningStatusSuccess,
		"IN_PROGRESS":                BDBCommissioningStatusInProgress,
		"NO_NETWORK":                 BDBCommissioningStatusNoNetwork,
		"TL_TARGET_FAILURE":          0x03,
		"TL_NOT_AA_CAPABLE":          0x04,
		"TL_NO_SCAN_RESPONSE":        0x05,
		"TL_NOT_PERMITTED":           0x06,
		"TCLK_EX_FAILURE":            0x07,
		"FORMATION_FAILURE":          0x08,
		"NO_IDENTIFY_QUERY_RESPONSE": 0x09,
		"BINDING_TABLE_FULL":         0x0A,
		"NO_SCAN_RESPONSE":           0x0B,
		"NOT_PERMITTED":              0x0C,
	})
}

// Default builds the representative command catalog this module exercises:
// not the full ~150-row Z-Stack catalog, but enough real command shapes to
// cover every class kind (SREQ, AREQ request-only, AREQ callback, the
// distinguished Rsp-only entry) and every exchange the driver performs.
func Default() (*Catalog, error) {
	rpcErrorNotRecognized := NewRspOnlyDef(
		"RPC_ERROR.CommandNotRecognized", mt.SubsystemRPCError, 0x00,
		schemaMust(NewSchema(
			P("ErrorCode", errorCodeCodec(), "Why the command was not recognized"),
			P("RequestHeader", types.U16(), "Raw header of the unrecognized request"),
		)),
	)

	sysPing := NewSREQDef(
		"SYS.Ping", mt.SubsystemSYS, 0x01,
		schemaMust(NewSchema()),
		schemaMust(NewSchema(
			P("Capabilities", types.NewBitmapCodec(2), "Opaque MT capability bitmap"),
		)),
	)

	sysResetReq := NewAREQRequestDef(
		"SYS.ResetReq", mt.SubsystemSYS, 0x00,
		schemaMust(NewSchema(
			P("Type", types.U8(), "0 = hard reset, 1 = soft reset"),
		)),
	)

	sysResetInd := NewAREQCallbackDef(
		"SYS.ResetInd", mt.SubsystemSYS, 0x80,
		schemaMust(NewSchema(
			P("Reason", types.U8(), "Reset reason code"),
			P("TransportRev", types.U8(), "Transport protocol revision"),
			P("ProductId", types.U8(), "Product identifier"),
			P("MajorRel", types.U8(), "Major release"),
			P("MinorRel", types.U8(), "Minor release"),
			P("HwRev", types.U8(), "Hardware revision"),
		)),
	)

	sysNVWrite := NewSREQDef(
		"SYS.NVWrite", mt.SubsystemSYS, 0x09,
		schemaMust(NewSchema(
			P("SysId", types.U8(), "Owning subsystem of the NV item"),
			P("ItemId", types.U16(), "NV item identifier"),
			P("SubId", types.U16(), "NV sub-item identifier"),
			P("Offset", types.U16(), "Byte offset into the item"),
			P("Value", types.ShortBytes(), "Bytes to write"),
		)),
		schemaMust(NewSchema(
			P("Status", types.U8(), "0 on success"),
		)),
	)

	sysSetTxPower := NewSREQDef(
		"SYS.SetTxPower", mt.SubsystemSYS, 0x14,
		schemaMust(NewSchema(
			P("TxPower", types.U8(), "Requested TX power in dBm, two's complement"),
		)),
		schemaMust(NewSchema(
			P("TxPower", types.U8(), "TX power actually applied by the radio"),
		)),
	)

	appCnfBDBStartCommissioning := NewSREQDef(
		"APP_CONFIG.BDBStartCommissioning", mt.SubsystemAPPConfig, 0x05,
		schemaMust(NewSchema(
			P("Mode", types.NewBitmapCodec(1), "Commissioning modes to start"),
		)),
		schemaMust(NewSchema(
			P("Status", types.U8(), "0 if commissioning was started"),
		)),
	)

	appCnfBDBCommissioningNotification := NewAREQCallbackDef(
		"APP_CONFIG.BDBCommissioningNotification", mt.SubsystemAPPConfig, 0x80,
		schemaMust(NewSchema(
			P("Status", bdbCommissioningStatusCodec(), "Outcome of the commissioning mode"),
			P("Mode", types.NewBitmapCodec(1), "Commissioning mode the notification is about"),
			P("RemainingModes", types.NewBitmapCodec(1), "Modes still pending"),
		)),
	)

	utilBindAddEntry := NewSREQDef(
		"UTIL.BindAddEntry", mt.SubsystemUTIL, 0x00,
		schemaMust(NewSchema(
			P("Command", types.U8(), "Direction of the binding command"),
			P("Index", types.U16(), "Binding table index"),
			P("BindAddr", types.EUI64Codec(), "Remote device IEEE address"),
			P("BindEp", types.U8(), "Remote device endpoint"),
			P("ClusterIdList", types.NewListCodec(types.U16()), "Clusters to bind"),
		)),
		schemaMust(NewSchema(
			P("Status", types.U8(), "0 on success"),
		)),
	)

	zdoActiveEpReq := NewSREQDef(
		"ZDO.ActiveEpReq", mt.SubsystemZDO, 0x05,
		schemaMust(NewSchema(
			P("DstAddr", types.NewNWKAddrCodec(), "Node the query is sent to"),
			P("NwkAddrOfInterest", types.NewNWKAddrCodec(), "Node being queried"),
		)),
		schemaMust(NewSchema(
			P("Status", types.U8(), "0 if the request was accepted for sending"),
		)),
	)

	zdoActiveEpRsp := NewAREQCallbackDef(
		"ZDO.ActiveEpRsp", mt.SubsystemZDO, 0x85,
		schemaMust(NewSchema(
			P("SrcAddr", types.NewNWKAddrCodec(), "Node that answered"),
			P("Status", types.U8(), "ZDO response status"),
			P("NwkAddr", types.NewNWKAddrCodec(), "Node the endpoints belong to"),
			P("ActiveEpList", types.NewListCodec(types.U8()), "Active endpoint numbers"),
		)),
	)

	zdoStateChangeInd := NewAREQCallbackDef(
		"ZDO.StateChangeInd", mt.SubsystemZDO, 0xC0,
		schemaMust(NewSchema(
			P("State", types.U8(), "New device/network state"),
		)),
	)

	afRegister := NewSREQDef(
		"AF.Register", mt.SubsystemAF, 0x00,
		schemaMust(NewSchema(
			P("Endpoint", types.U8(), "Local endpoint number"),
			P("ProfileId", types.U16(), "Application profile id"),
			P("DeviceId", types.U16(), "Device description id"),
			P("DeviceVersion", types.U8(), "Device version"),
			P("LatencyReq", types.U8(), "Network latency requirement"),
			P("InClusterList", types.NewListCodec(types.U16()), "Input clusters"),
			P("OutClusterList", types.NewListCodec(types.U16()), "Output clusters"),
		)),
		schemaMust(NewSchema(
			P("Status", types.U8(), "0 on success"),
		)),
	)

	afDataRequest := NewSREQDef(
		"AF.DataRequest", mt.SubsystemAF, 0x01,
		schemaMust(NewSchema(
			P("DstAddr", types.NewNWKAddrCodec(), "Destination node"),
			P("DstEndpoint", types.U8(), "Destination endpoint"),
			P("SrcEndpoint", types.U8(), "Source endpoint"),
			P("ClusterId", types.U16(), "Cluster to send on"),
			P("TransId", types.U8(), "Transaction sequence number"),
			P("Options", types.NewBitmapCodec(1), "APS transmit option flags"),
			P("Radius", types.U8(), "Broadcast radius"),
			P("Data", types.LongBytes(), "APS payload"),
		)),
		schemaMust(NewSchema(
			P("Status", types.U8(), "0 if accepted for sending"),
		)),
	)

	afIncomingMsg := NewAREQCallbackDef(
		"AF.IncomingMsg", mt.SubsystemAF, 0x81,
		schemaMust(NewSchema(
			P("GroupId", types.NewNWKAddrCodec(), "Group the message was sent to, if any"),
			P("ClusterId", types.U16(), "Cluster the message arrived on"),
			P("SrcAddr", types.NewNWKAddrCodec(), "Sending node"),
			P("SrcEndpoint", types.U8(), "Sending endpoint"),
			P("DstEndpoint", types.U8(), "Receiving endpoint"),
			P("WasBroadcast", types.U8(), "Non-zero if sent as a broadcast"),
			P("LinkQuality", types.U8(), "Link quality indicator"),
			P("SecurityUse", types.U8(), "Non-zero if APS security was used"),
			P("Timestamp", types.U32(), "MAC timestamp"),
			P("TransSeqNumber", types.U8(), "Transaction sequence number"),
			P("Data", types.LongBytes(), "APS payload"),
		)),
	)

	return New(
		rpcErrorNotRecognized,
		sysPing,
		sysResetReq,
		sysResetInd,
		sysNVWrite,
		sysSetTxPower,
		appCnfBDBStartCommissioning,
		appCnfBDBCommissioningNotification,
		utilBindAddEntry,
		zdoActiveEpReq,
		zdoActiveEpRsp,
		zdoStateChangeInd,
		afRegister,
		afDataRequest,
		afIncomingMsg,
	)
}
