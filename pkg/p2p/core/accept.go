package core

import (
	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// RunAccept is the accept worker. It blocks on acceptRx so it only pulls
// from incoming when told to (the flow-control surface described in spec
// §4.3): without a pending Accept signal, it never touches the transport.
func RunAccept(acceptRx <-chan struct{}, registry *ConnRegistry, incoming Incoming, inputTx chan<- types.Input, log definition.Logger) {
	for range acceptRx {
		conn, err, ok := incoming.Next()
		if !ok {
			// Incoming stream is finished; nothing left to do.
			return
		}
		if err != nil {
			log.Warnf("p2p: accept failed: %v", err)
			continue
		}

		id := DeriveNodeId(conn.PublicKey())
		if registry.Insert(id, types.Incoming, conn) {
			inputTx <- types.AcceptedInput{ID: id}
			continue
		}

		closeErr := conn.Close()
		inputTx <- types.DuplicateConnRejectedInput{ID: id, CloseErr: closeErr}
	}
}
