package p2p

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

func nodeID(b byte) types.NodeId {
	var id types.NodeId
	id[0] = b
	return id
}

func TestProtocolAcceptCommandEmitsAcceptWork(t *testing.T) {
	p := newProtocol()
	outputs := p.transition(types.CommandInput{Command: types.AcceptCommand{}})
	require.Len(t, outputs, 1)
	assert.Equal(t, types.InternalOutput{Internal: types.AcceptWork{}}, outputs[0])
}

func TestProtocolEstablishedThenUpgradedThenMessage(t *testing.T) {
	p := newProtocol()
	id := nodeID(1)

	outputs := p.transition(types.AcceptedInput{ID: id})
	require.Len(t, outputs, 2)
	assert.Equal(t, types.EventOutput{Event: types.ConnectedEvent{ID: id, Direction: types.Incoming}}, outputs[0])
	assert.Equal(t, types.InternalOutput{Internal: types.UpgradeWork{ID: id}}, outputs[1])

	outputs = p.transition(types.UpgradedInput{ID: id})
	require.Len(t, outputs, 1)
	assert.Equal(t, types.EventOutput{Event: types.UpgradedEvent{ID: id}}, outputs[0])

	// Before Upgraded a Msg command is silently dropped (DESIGN.md open
	// question #4); after Upgraded it produces SendMessageWork.
	msg := types.Send{Stream: "chat", Payload: []byte("hi")}
	outputs = p.transition(types.CommandInput{Command: types.MsgCommand{ID: id, Message: msg}})
	require.Len(t, outputs, 1)
	assert.Equal(t, types.InternalOutput{Internal: types.SendMessageWork{ID: id, Message: msg}}, outputs[0])
}

func TestProtocolMsgBeforeUpgradeIsDropped(t *testing.T) {
	p := newProtocol()
	id := nodeID(2)
	outputs := p.transition(types.CommandInput{Command: types.MsgCommand{ID: id, Message: types.Send{}}})
	assert.Nil(t, outputs)
}

func TestProtocolDisconnectUnknownOrRepeatedIsDropped(t *testing.T) {
	p := newProtocol()
	id := nodeID(9)

	// Never connected at all.
	outputs := p.transition(types.CommandInput{Command: types.DisconnectCommand{ID: id}})
	assert.Nil(t, outputs)

	// Connected, upgraded, then stopped: a second Disconnect must not reach
	// the Stop worker, which would report ErrPeerNotFound and kill the
	// whole supervisor.
	p.transition(types.AcceptedInput{ID: id})
	p.transition(types.UpgradedInput{ID: id})
	p.transition(types.StoppedInput{ID: id, Reason: nil})

	outputs = p.transition(types.CommandInput{Command: types.DisconnectCommand{ID: id}})
	assert.Nil(t, outputs)
}

func TestProtocolDisconnectKnownPeerEmitsStopWork(t *testing.T) {
	p := newProtocol()
	id := nodeID(10)
	p.transition(types.AcceptedInput{ID: id})
	p.transition(types.UpgradedInput{ID: id})

	outputs := p.transition(types.CommandInput{Command: types.DisconnectCommand{ID: id}})
	require.Len(t, outputs, 1)
	assert.Equal(t, types.InternalOutput{Internal: types.StopWork{ID: id}}, outputs[0])
}

func TestProtocolDuplicateConnRejectedIsNoOp(t *testing.T) {
	p := newProtocol()
	outputs := p.transition(types.DuplicateConnRejectedInput{ID: nodeID(3), CloseErr: nil})
	assert.Nil(t, outputs)
}

func TestProtocolUpgradeFailedClearsConnectedWithoutUpgrading(t *testing.T) {
	p := newProtocol()
	id := nodeID(4)
	p.transition(types.ConnectedInput{ID: id})

	outputs := p.transition(types.UpgradeFailedInput{ID: id, Reason: errors.New("handshake failed")})
	require.Len(t, outputs, 1)
	ev := outputs[0].(types.EventOutput).Event.(types.UpgradeFailedEvent)
	assert.Equal(t, id, ev.ID)
	assert.EqualError(t, ev.Reason, "handshake failed")

	_, stillConnected := p.connected[id]
	assert.False(t, stillConnected)
}

func TestProtocolStoppedDefaultsReasonWhenNil(t *testing.T) {
	p := newProtocol()
	id := nodeID(5)
	p.transition(types.AcceptedInput{ID: id})
	p.transition(types.UpgradedInput{ID: id})

	outputs := p.transition(types.StoppedInput{ID: id, Reason: nil})
	require.Len(t, outputs, 1)
	ev := outputs[0].(types.EventOutput).Event.(types.DisconnectedEvent)
	assert.EqualError(t, ev.Reason, "ok")

	_, stillUpgraded := p.upgraded[id]
	assert.False(t, stillUpgraded)
}

func TestProtocolReceiveInputBecomesMessageEvent(t *testing.T) {
	p := newProtocol()
	id := nodeID(6)
	msg := types.Receive{Stream: "chat", Payload: []byte("hello")}

	outputs := p.transition(types.ReceiveInput{ID: id, Message: msg})
	require.Len(t, outputs, 1)
	assert.Equal(t, types.EventOutput{Event: types.MessageEvent{ID: id, Message: msg}}, outputs[0])
}

func TestProtocolFatalInputProducesNoOutputs(t *testing.T) {
	p := newProtocol()
	outputs := p.transition(types.FatalInput{Err: errors.New("boom")})
	assert.Nil(t, outputs)
}
