package types

// CVM events
const (
	EventTypeInterpreterInstantiated = "interpreter_instantiated"
	EventTypeProgramExecuted         = "program_executed"
	EventTypeSpawnEmitted            = "spawn_emitted"
	EventTypeSpawnSettled            = "spawn_settled"
	EventTypeGatewayPaused           = "gateway_paused"
	EventTypeNetworkRegistered       = "network_registered"
	EventTypeAssetRegistered         = "asset_registered"

	AttributeKeyInterpreter  = "interpreter"
	AttributeKeyOrigin       = "origin"
	AttributeKeyNetwork      = "network"
	AttributeKeyChannel      = "channel"
	AttributeKeySequence     = "sequence"
	AttributeKeyInstructions = "instructions"
	AttributeKeyStatus       = "status"
	AttributeKeySuccess      = "success"
	AttributeKeyPaused       = "paused"
	AttributeKeyAsset        = "asset"
	AttributeKeyDenom        = "denom"
)
