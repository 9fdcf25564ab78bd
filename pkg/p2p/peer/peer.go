// Package peer implements the running, multiplexed endpoint the supervisor
// upgrades connections into.
package peer

import (
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// PreRun is a Peer that has been constructed from a Connection but has not
// yet been run with a set of logical streams.
type PreRun interface {
	// Run promotes the PreRun peer into a Running one, opening one
	// multiplexed stream per entry in streams.
	Run(streams []types.StreamName) (Running, error)
}

// Running is a live, multiplexed peer. It is in exactly one of the states
// PreRun/Running/Stopped; only Running peers appear in the peer registry.
type Running interface {
	// ID is the NodeId this peer was upgraded for.
	ID() types.NodeId

	// Send delivers msg to the peer. The send worker calls it for one
	// message at a time, after releasing the peer registry lock, so a Send
	// that blocks delays every later message to every peer.
	Send(msg types.Send) error

	// Stop tears the peer down. It is idempotent: the stop worker and a
	// spontaneous read-side close can both race to call it for the same
	// peer, so implementations must tolerate repeat calls.
	Stop() error

	// Receiver yields inbound messages from the peer. It is closed when the
	// peer's read side ends, spontaneously or via Stop.
	Receiver() <-chan types.Receive
}
