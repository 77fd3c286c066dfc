package producer

import (
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/types"
)

// LatestCommittedRoot walks the chain of locally-synced updates forward
// from the protocol's empty root, following update_prev -> update_new
// links, and returns the terminal root: the most recent root the home is
// locally known to have committed to. This is the Index's mirror of the
// home's on-chain committed_root(), letting the signing loop avoid a
// chain round-trip on every tick.
func LatestCommittedRoot(db *index.DB, entity string) (types.Hash, error) {
	root := merkle.EmptyRoot()
	for {
		su, err := db.LookupUpdateByPrev(entity, root)
		if err == index.ErrNotFound {
			return root, nil
		}
		if err != nil {
			return types.Hash{}, err
		}
		root = su.Update.NewRoot
	}
}
