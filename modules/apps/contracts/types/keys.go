package types

const (
	// ModuleName defines the contract host module name
	ModuleName = "contracts"
)
