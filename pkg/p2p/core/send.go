package core

import (
	"fmt"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// RunSend is the send worker. The peer is looked up under the peer
// registry's read lock, which is released before peer.Send is called. Jobs
// are handled one at a time, so a Send that blocks delays every later
// message to every peer.
func RunSend(sendRx <-chan types.SendMessageWork, registry *PeerRegistry, inputTx chan<- types.Input, log definition.Logger) {
	for job := range sendRx {
		p, ok := registry.Get(job.ID)
		if !ok {
			// The FSM only issues SendMessageWork for ids in `upgraded`, so a
			// miss here means the registry and the FSM have desynchronized.
			inputTx <- types.FatalInput{Err: fmt.Errorf("%w: %s", types.ErrPeerNotFound, job.ID)}
			continue
		}
		if err := p.Send(job.Message); err != nil {
			log.Errorf("p2p: send to %s failed: %v", job.ID, err)
		}
	}
}
