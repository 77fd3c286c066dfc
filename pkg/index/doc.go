// Package index implements the Persistent Index: a durable, typed view
// over an embedded key-value store (Pebble) shared by every agent in one
// process. Keys are scoped by an entity name (the agent binary uses the
// configured network name) so multiple chains can share one backing
// store directory without collision, and within an entity by the prefix
// tags from spec section 3.
//
// The Index is strictly a state store, not a pub/sub bus: wait-style
// helpers (WaitForLeaf) are satisfied by bounded-backoff polling, never by
// cross-task notification.
package index
