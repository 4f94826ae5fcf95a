package ir

// Version constants recorded with every stored rewrite run.
const (
	// IRVersion is the version of the operator taxonomy. Bump it whenever an
	// OpType is added, removed or changes arity.
	IRVersion = "1"

	// EngineVersion is the rewrite engine version.
	EngineVersion = "0.1.0"
)
