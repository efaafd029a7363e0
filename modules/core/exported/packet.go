package exported

// PacketI defines the standard interface for IBC packets
type PacketI interface {
	GetSequence() uint64
	GetTimeoutHeight() Height
	GetTimeoutTimestamp() uint64
	GetSourcePort() string
	GetSourceChannel() string
	GetDestPort() string
	GetDestChannel() string
	GetData() []byte
	ValidateBasic() error
}

// Acknowledgement defines the interface used to return
// acknowledgements in the OnRecvPacket callback.
type Acknowledgement interface {
	// Success returns true if the acknowledgement is successful.
	// Core IBC discards the application state changes made during OnRecvPacket
	// when it is false.
	Success() bool

	// Acknowledgement returns the bytes committed to by core IBC.
	Acknowledgement() []byte
}
