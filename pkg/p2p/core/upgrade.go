package core

import (
	"fmt"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/peer"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// PeerBuilder constructs a PreRun peer from a registered connection. dir
// decides which side of the peer's multiplexing session this end plays:
// on an Outgoing connection this end dialed, so it is the multiplexer
// client; on an Incoming connection it is the server.
type PeerBuilder func(conn Connection, id types.NodeId, dir types.Direction, log definition.Logger) (peer.PreRun, error)

// DefaultPeerBuilder builds a yamux-multiplexed peer, the one used outside
// of tests.
func DefaultPeerBuilder(conn Connection, id types.NodeId, dir types.Direction, log definition.Logger) (peer.PreRun, error) {
	return peer.NewPreRun(conn, id, dir == types.Outgoing, log), nil
}

// RunUpgrade is the upgrade worker. It removes the registered connection
// (connRegistry lock, released immediately) and, on success, inserts the
// resulting running peer (peerRegistry lock, acquired and released
// separately — spec §5 forbids holding both locks at once, except this
// sequential connRegistry→release→peerRegistry dance).
func RunUpgrade(upgradeRx <-chan types.NodeId, connRegistry *ConnRegistry, peerRegistry *PeerRegistry, streams []types.StreamName, build PeerBuilder, inputTx chan<- types.Input, log definition.Logger) {
	for id := range upgradeRx {
		entry, ok := connRegistry.Remove(id)
		if !ok {
			inputTx <- types.UpgradeFailedInput{ID: id, Reason: types.ErrConnectionNotFound}
			continue
		}

		preRun, err := build(entry.Conn, id, entry.Direction, log)
		if err != nil {
			inputTx <- types.UpgradeFailedInput{ID: id, Reason: err}
			continue
		}

		running, err := preRun.Run(streams)
		if err != nil {
			inputTx <- types.UpgradeFailedInput{ID: id, Reason: err}
			continue
		}

		if !peerRegistry.Insert(id, running) {
			inputTx <- types.FatalInput{Err: fmt.Errorf("%w: %s", types.ErrDuplicatePeer, id)}
			continue
		}

		inputTx <- types.UpgradedInput{ID: id}
	}
}
