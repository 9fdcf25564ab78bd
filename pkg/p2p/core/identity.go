package core

import (
	"lukechampine.com/blake3"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// DeriveNodeId computes the NodeId for a remote's public key: a blake3
// digest, so identity derivation is cheap and collision-resistant regardless
// of the underlying key algorithm's own encoding.
func DeriveNodeId(publicKey []byte) types.NodeId {
	return types.NodeId(blake3.Sum256(publicKey))
}
