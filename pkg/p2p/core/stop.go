package core

import (
	"fmt"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// RunStop is the stop worker. The peer is removed from the registry (lock
// released immediately) before peer.Stop() is called outside the lock, so
// shutdown I/O never blocks other registry access (spec §4.7).
func RunStop(stopRx <-chan types.NodeId, registry *PeerRegistry, inputTx chan<- types.Input, log definition.Logger) {
	for id := range stopRx {
		p, ok := registry.Remove(id)
		if !ok {
			inputTx <- types.FatalInput{Err: fmt.Errorf("%w: %s", types.ErrPeerNotFound, id)}
			continue
		}

		var reason error
		if err := p.Stop(); err != nil {
			reason = err
			log.Warnf("p2p: stop of %s returned error: %v", id, err)
		}
		inputTx <- types.StoppedInput{ID: id, Reason: reason}
	}
}
