package types

// Prometheus metric labels.
const (
	LabelSourcePort         = "source_port"
	LabelSourceChannel      = "source_channel"
	LabelDestinationPort    = "destination_port"
	LabelDestinationChannel = "destination_channel"
	LabelTimeoutType        = "timeout_type"
	LabelDenom              = "denom"
	LabelSource             = "source"
)
