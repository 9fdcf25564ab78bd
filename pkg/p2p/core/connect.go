package core

import (
	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// RunConnect is the connect worker: dials a remote, derives its NodeId, and
// registers it under the same duplicate-rejection rule Accept uses (spec
// §9 open question #3 — the outgoing duplicate path mirrors the inbound
// one exactly).
func RunConnect(connectRx <-chan types.ConnectInfo, endpoint Endpoint, registry *ConnRegistry, inputTx chan<- types.Input, log definition.Logger) {
	for info := range connectRx {
		conn, err := endpoint.Connect(info)
		if err != nil {
			log.Warnf("p2p: dial to %s failed: %v", info.Address, err)
			inputTx <- types.UpgradeFailedInput{Reason: err}
			continue
		}

		id := DeriveNodeId(conn.PublicKey())
		if registry.Insert(id, types.Outgoing, conn) {
			inputTx <- types.ConnectedInput{ID: id}
			continue
		}

		closeErr := conn.Close()
		inputTx <- types.DuplicateConnRejectedInput{ID: id, CloseErr: closeErr}
	}
}
