// Package chainadapter defines the uniform, chain-agnostic surface every
// agent programs against: Home, Replica, ConnectionManager, Indexer, and
// Submitter. Concrete implementations (evmadapter for EVM-style chains,
// mockadapter for tests and dry-run monitoring) are selected by each
// network's config.AdapterKind and bound once at agent startup; agents
// hold them as interface values, so agent logic stays generic over the
// interface.
//
// This is the only layer that knows about chain-native transport and
// signature conventions; concrete RPC wire encoding is an explicit
// Non-goal and is kept out of this package's exported surface.
package chainadapter
