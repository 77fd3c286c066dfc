package processor

import "github.com/nomadprotocol/agents/pkg/types"

// MessageFilter decides whether a message should be skipped based on its
// sender, per spec section 4.F.3 step 3: deny-listed senders are always
// skipped; when an allow-list is configured (non-empty), only senders on
// it are processed.
type MessageFilter struct {
	Deny  map[types.ID32]bool
	Allow map[types.ID32]bool
}

// Skip reports whether a message from sender should be skipped.
func (f MessageFilter) Skip(sender types.ID32) bool {
	if f.Deny[sender] {
		return true
	}
	if len(f.Allow) > 0 && !f.Allow[sender] {
		return true
	}
	return false
}
