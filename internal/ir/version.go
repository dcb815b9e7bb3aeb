package ir

// Version constants for the data model and the engine.
const (
	// SchemaVersion is the module description schema version.
	SchemaVersion = "1"

	// EngineVersion is the synthesis engine version.
	EngineVersion = "0.1.0"

	// ProcessChainVersion is the process-chain version emitted by expansion
	// when the request omits one.
	ProcessChainVersion = "1"
)
