package p2p

import (
	"errors"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// protocol is the pure FSM embedded in the main loop. transition performs no
// I/O and holds no locks: that purity is what makes the invariants in
// spec.md §8 checkable by feeding it Input values directly in tests.
type protocol struct {
	connected map[types.NodeId]types.Direction
	upgraded  map[types.NodeId]struct{}
	stopped   map[types.NodeId]struct{}
}

func newProtocol() *protocol {
	return &protocol{
		connected: make(map[types.NodeId]types.Direction),
		upgraded:  make(map[types.NodeId]struct{}),
		stopped:   make(map[types.NodeId]struct{}),
	}
}

func (p *protocol) transition(input types.Input) []types.Output {
	switch in := input.(type) {
	case types.CommandInput:
		return p.handleCommand(in.Command)
	case types.AcceptedInput:
		return p.handleEstablished(in.ID, types.Incoming)
	case types.ConnectedInput:
		return p.handleEstablished(in.ID, types.Outgoing)
	case types.DuplicateConnRejectedInput:
		// No FSM state change and no event: the connection never entered
		// `connected`, so there is nothing to reconcile (spec §4.2 table).
		return nil
	case types.UpgradedInput:
		return p.handleUpgraded(in.ID)
	case types.UpgradeFailedInput:
		return p.handleUpgradeFailed(in.ID, in.Reason)
	case types.StoppedInput:
		return p.handleStopped(in.ID, in.Reason)
	case types.ReceiveInput:
		return []types.Output{types.EventOutput{Event: types.MessageEvent{ID: in.ID, Message: in.Message}}}
	case types.FatalInput:
		// Surfaced by the main loop as termination; transition itself has
		// nothing more to compute.
		return nil
	default:
		return nil
	}
}

func (p *protocol) handleCommand(cmd types.Command) []types.Output {
	switch c := cmd.(type) {
	case types.AcceptCommand:
		return []types.Output{types.InternalOutput{Internal: types.AcceptWork{}}}
	case types.ConnectCommand:
		return []types.Output{types.InternalOutput{Internal: types.ConnectWork{Info: c.Info}}}
	case types.DisconnectCommand:
		if _, ok := p.upgraded[c.ID]; !ok {
			// Unknown id, or a repeat Disconnect for one already stopped:
			// dropped rather than forwarded to the Stop worker, which would
			// find no peer and report a fatal invariant violation. This
			// keeps a second Disconnect(id) a no-op instead of tearing down
			// the whole supervisor, matching the "exactly one Disconnected
			// event per id" round-trip property (spec §8), the same gate
			// MsgCommand uses below.
			return nil
		}
		return []types.Output{types.InternalOutput{Internal: types.StopWork{ID: c.ID}}}
	case types.MsgCommand:
		if _, ok := p.upgraded[c.ID]; !ok {
			// Dropped: the caller must wait for Event.Upgraded(id) before
			// sending (spec §5). Keeping this silent is deliberate — see
			// DESIGN.md open question #4.
			return nil
		}
		return []types.Output{types.InternalOutput{Internal: types.SendMessageWork{ID: c.ID, Message: c.Message}}}
	default:
		return nil
	}
}

func (p *protocol) handleEstablished(id types.NodeId, dir types.Direction) []types.Output {
	p.connected[id] = dir
	return []types.Output{
		types.EventOutput{Event: types.ConnectedEvent{ID: id, Direction: dir}},
		types.InternalOutput{Internal: types.UpgradeWork{ID: id}},
	}
}

func (p *protocol) handleUpgraded(id types.NodeId) []types.Output {
	delete(p.connected, id)
	p.upgraded[id] = struct{}{}
	return []types.Output{types.EventOutput{Event: types.UpgradedEvent{ID: id}}}
}

func (p *protocol) handleUpgradeFailed(id types.NodeId, reason error) []types.Output {
	delete(p.connected, id)
	return []types.Output{types.EventOutput{Event: types.UpgradeFailedEvent{ID: id, Reason: reason}}}
}

func (p *protocol) handleStopped(id types.NodeId, reason error) []types.Output {
	if _, ok := p.upgraded[id]; !ok {
		// Already reported: a commanded stop and the main loop seeing the
		// peer's receiver close can both report the same peer.
		return nil
	}
	delete(p.upgraded, id)
	p.stopped[id] = struct{}{}
	if reason == nil {
		reason = errors.New("ok")
	}
	return []types.Output{types.EventOutput{Event: types.DisconnectedEvent{ID: id, Reason: reason}}}
}
