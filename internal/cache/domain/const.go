// Package domain defines the core cache-aside domain models.
//
// The cache engine treats the backing store as an optional accelerator:
// every value it holds can be recomputed by the caller, so availability is
// always favored over strict consistency. Store failures degrade to misses
// and never propagate to callers.
package domain

// WriteCondition controls the conditional-write semantics of a cache set.
type WriteCondition string

const (
	// ConditionNone stores the value unconditionally.
	ConditionNone WriteCondition = ""

	// ConditionIfAbsent stores the value only when the key does not exist
	// (SET NX semantics on the backing store).
	ConditionIfAbsent WriteCondition = "only-if-absent"

	// ConditionIfPresent stores the value only when the key already exists
	// (SET XX semantics on the backing store).
	ConditionIfPresent WriteCondition = "only-if-present"
)

// EngineState represents the lifecycle state of the cache engine.
//
// State transitions: Disconnected → Connecting → Connected | FallbackMode.
// FallbackMode is terminal within the engine: reconnection is an operational
// concern handled outside this design.
type EngineState string

const (
	// StateDisconnected is the initial state before Connect is called.
	StateDisconnected EngineState = "disconnected"

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting EngineState = "connecting"

	// StateConnected indicates the backing store is reachable.
	StateConnected EngineState = "connected"

	// StateFallback indicates the backing store was unreachable at
	// initialization; every get is a miss and every set fails, while the
	// rest of the application keeps functioning.
	StateFallback EngineState = "fallback"
)
