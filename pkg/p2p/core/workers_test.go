package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/peer"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

type fakeIncoming struct {
	conns []Connection
	errs  []error
}

func (f *fakeIncoming) Next() (Connection, error, bool) {
	if len(f.conns) == 0 && len(f.errs) == 0 {
		return nil, nil, false
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err, true
	}
	conn := f.conns[0]
	f.conns = f.conns[1:]
	return conn, nil, true
}

func TestRunAcceptEmitsAcceptedThenRejectsDuplicate(t *testing.T) {
	registry := NewConnRegistry()
	inputRx := make(chan types.Input, 4)
	acceptRx := make(chan struct{}, 2)
	incoming := &fakeIncoming{conns: []Connection{&pubKeyConn{key: []byte("a")}, &pubKeyConn{key: []byte("a")}}}

	go RunAccept(acceptRx, registry, incoming, inputRx, definition.NewDefaultLogger())
	acceptRx <- struct{}{}
	acceptRx <- struct{}{}
	close(acceptRx)

	first := (<-inputRx).(types.AcceptedInput)
	second := <-inputRx
	_, isDuplicate := second.(types.DuplicateConnRejectedInput)
	assert.True(t, isDuplicate)
	assert.Equal(t, DeriveNodeId([]byte("a")), first.ID)
}

type pubKeyConn struct {
	fakeConn
	key []byte
}

func (p *pubKeyConn) PublicKey() []byte { return p.key }

func TestRunConnectEmitsConnectedInput(t *testing.T) {
	registry := NewConnRegistry()
	inputRx := make(chan types.Input, 4)
	connectRx := make(chan types.ConnectInfo, 1)
	endpoint := &fakeEndpoint{conn: &pubKeyConn{key: []byte("remote")}}

	go RunConnect(connectRx, endpoint, registry, inputRx, definition.NewDefaultLogger())
	connectRx <- types.ConnectInfo{Address: "1.2.3.4:9"}
	close(connectRx)

	in := (<-inputRx).(types.ConnectedInput)
	assert.Equal(t, DeriveNodeId([]byte("remote")), in.ID)
}

func TestRunConnectEmitsUpgradeFailedOnDialError(t *testing.T) {
	registry := NewConnRegistry()
	inputRx := make(chan types.Input, 4)
	connectRx := make(chan types.ConnectInfo, 1)
	endpoint := &fakeEndpoint{err: errors.New("refused")}

	go RunConnect(connectRx, endpoint, registry, inputRx, definition.NewDefaultLogger())
	connectRx <- types.ConnectInfo{Address: "1.2.3.4:9"}
	close(connectRx)

	in := (<-inputRx).(types.UpgradeFailedInput)
	assert.True(t, in.ID.IsZero())
	assert.EqualError(t, in.Reason, "refused")
}

type fakeEndpoint struct {
	conn Connection
	err  error
}

func (e *fakeEndpoint) Connect(types.ConnectInfo) (Connection, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.conn, nil
}

func TestRunUpgradeMovesConnToPeerRegistry(t *testing.T) {
	connRegistry := NewConnRegistry()
	peerRegistry := NewPeerRegistry()
	inputRx := make(chan types.Input, 4)
	upgradeRx := make(chan types.NodeId, 1)

	id := types.NodeId{9}
	connRegistry.Insert(id, types.Incoming, &fakeConn{})

	build := func(conn Connection, id types.NodeId, dir types.Direction, log definition.Logger) (peer.PreRun, error) {
		return stubPreRun{id: id}, nil
	}

	go RunUpgrade(upgradeRx, connRegistry, peerRegistry, nil, build, inputRx, definition.NewDefaultLogger())
	upgradeRx <- id
	close(upgradeRx)

	in := (<-inputRx).(types.UpgradedInput)
	assert.Equal(t, id, in.ID)

	_, stillInConn := connRegistry.Remove(id)
	assert.False(t, stillInConn)

	got, ok := peerRegistry.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, got.ID())
}

func TestRunUpgradeMissingConnectionReportsFailure(t *testing.T) {
	connRegistry := NewConnRegistry()
	peerRegistry := NewPeerRegistry()
	inputRx := make(chan types.Input, 4)
	upgradeRx := make(chan types.NodeId, 1)

	build := func(Connection, types.NodeId, types.Direction, definition.Logger) (peer.PreRun, error) {
		return stubPreRun{}, nil
	}

	go RunUpgrade(upgradeRx, connRegistry, peerRegistry, nil, build, inputRx, definition.NewDefaultLogger())
	missing := types.NodeId{7}
	upgradeRx <- missing
	close(upgradeRx)

	in := (<-inputRx).(types.UpgradeFailedInput)
	assert.ErrorIs(t, in.Reason, types.ErrConnectionNotFound)
}

type stubPreRun struct{ id types.NodeId }

func (s stubPreRun) Run([]types.StreamName) (peer.Running, error) {
	return &fakeRunning{id: s.id}, nil
}

func TestRunSendReportsFatalWhenPeerMissing(t *testing.T) {
	registry := NewPeerRegistry()
	inputRx := make(chan types.Input, 4)
	sendRx := make(chan types.SendMessageWork, 1)

	go RunSend(sendRx, registry, inputRx, definition.NewDefaultLogger())
	id := types.NodeId{3}
	sendRx <- types.SendMessageWork{ID: id, Message: types.Send{Stream: "s", Payload: []byte("x")}}
	close(sendRx)

	in := (<-inputRx).(types.FatalInput)
	assert.ErrorIs(t, in.Err, types.ErrPeerNotFound)
}

func TestRunStopRemovesAndReportsStopped(t *testing.T) {
	registry := NewPeerRegistry()
	inputRx := make(chan types.Input, 4)
	stopRx := make(chan types.NodeId, 1)

	id := types.NodeId{4}
	registry.Insert(id, &fakeRunning{id: id})

	go RunStop(stopRx, registry, inputRx, definition.NewDefaultLogger())
	stopRx <- id
	close(stopRx)

	in := (<-inputRx).(types.StoppedInput)
	assert.Equal(t, id, in.ID)
	assert.NoError(t, in.Reason)

	_, ok := registry.Get(id)
	assert.False(t, ok)
}
