// Package p2p implements the concurrency core of a p2p node's networking
// supervisor: the worker subroutines, the shared connection/peer registries,
// and the protocol state machine that mediates between external commands,
// internal work results, and published events.
package p2p

import (
	"reflect"
	"sync"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/core"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// Supervisor owns a set of physical connections to remote peers, drives each
// through accept/connect → upgrade → running → stopped, multiplexes
// application messages onto peers, and exposes commands/events to
// higher-level protocols.
type Supervisor struct {
	commandTx chan<- types.Command
	eventRx   <-chan types.Event
	done      chan struct{}
	closeOnce sync.Once
}

// Construct binds transport at bindAddr, spawns the five workers and the
// main loop, and returns a handle. The only failure surfaced here is a
// transport bind failure (spec §4.1).
func Construct(transport core.Transport, bindAddr string, opts ...Option) (*Supervisor, error) {
	cfg := newConfig(opts)

	endpoint, incoming, err := transport.Bind(core.BindInfo{Address: bindAddr})
	if err != nil {
		return nil, err
	}

	commandQueue := core.NewUnbounded[types.Command]()
	eventQueue := core.NewUnbounded[types.Event]()
	inputQueue := core.NewUnbounded[types.Input]()
	acceptQueue := core.NewUnbounded[struct{}]()

	invoker := core.NewWaitGroupInvoker(cfg.Logger)
	metrics := core.NewMetrics(cfg.Registerer)

	done := make(chan struct{})

	m := &mainLoop{
		cfg:          cfg,
		invoker:      invoker,
		metrics:      metrics,
		connRegistry: core.NewConnRegistry(),
		peerRegistry: core.NewPeerRegistry(),
		commandRx:    commandQueue.Out(),
		eventQueue:   eventQueue,
		inputQueue:   inputQueue,
		acceptQueue:  acceptQueue,
		connectTx:    make(chan types.ConnectInfo, 16),
		upgradeTx:    make(chan types.NodeId, 16),
		sendTx:       make(chan types.SendMessageWork, 256),
		stopTx:       make(chan types.NodeId, 16),
		done:         done,
	}

	invoker.Spawn(func() {
		core.RunAccept(m.acceptQueue.Out(), m.connRegistry, incoming, m.inputQueue.In(), cfg.Logger)
	}, m.onWorkerPanic)
	invoker.Spawn(func() { core.RunConnect(m.connectTx, endpoint, m.connRegistry, m.inputQueue.In(), cfg.Logger) }, m.onWorkerPanic)
	invoker.Spawn(func() {
		core.RunUpgrade(m.upgradeTx, m.connRegistry, m.peerRegistry, cfg.Streams, cfg.PeerBuilder, m.inputQueue.In(), cfg.Logger)
	}, m.onWorkerPanic)
	invoker.Spawn(func() { core.RunSend(m.sendTx, m.peerRegistry, m.inputQueue.In(), cfg.Logger) }, m.onWorkerPanic)
	invoker.Spawn(func() { core.RunStop(m.stopTx, m.peerRegistry, m.inputQueue.In(), cfg.Logger) }, m.onWorkerPanic)

	go m.run()

	return &Supervisor{commandTx: commandQueue.In(), eventRx: eventQueue.Out(), done: done}, nil
}

// Wait blocks until the supervisor's main loop and all five workers have
// fully exited. Tests use this (alongside goleak) to confirm a torn-down
// Supervisor leaves nothing running.
func (s *Supervisor) Wait() {
	<-s.done
}

// Close requests a clean shutdown: the main loop stops accepting commands
// and tears down every worker; worker results still queued at that point
// are not turned into events. Close is
// idempotent; calling it more than once, or after the Supervisor has already
// terminated on its own, is a no-op.
func (s *Supervisor) Close() {
	s.closeOnce.Do(func() { close(s.commandTx) })
}

// Command sends cmd to the supervisor. It returns ErrSupervisorTerminated if
// the supervisor has already terminated (or Close was called). Close closes
// commandTx, so the send case below would otherwise be a live panic rather
// than a blocking wait — recover turns that race into the same sentinel
// error a clean done-channel read would give.
func (s *Supervisor) Command(cmd types.Command) (err error) {
	defer func() {
		if recover() != nil {
			err = types.ErrSupervisorTerminated
		}
	}()

	select {
	case <-s.done:
		return types.ErrSupervisorTerminated
	default:
	}

	select {
	case s.commandTx <- cmd:
		return nil
	case <-s.done:
		return types.ErrSupervisorTerminated
	}
}

// Recv blocks until the next event. ok is false once the supervisor has
// terminated and no further events will arrive — this is the Terminated
// signal from DESIGN.md open question #1, surfaced as a clean channel close
// rather than forcing every caller to type-switch for a Terminated event.
func (s *Supervisor) Recv() (types.Event, bool) {
	ev, ok := <-s.eventRx
	return ev, ok
}

// mainLoop holds everything the composite select and Protocol.transition
// dispatch loop needs. It is unexported: Supervisor is the only public
// surface (spec §4.1).
type mainLoop struct {
	cfg     *Config
	invoker *core.WaitGroupInvoker
	metrics *core.Metrics

	connRegistry *core.ConnRegistry
	peerRegistry *core.PeerRegistry

	commandRx   <-chan types.Command
	eventQueue  *core.Unbounded[types.Event]
	inputQueue  *core.Unbounded[types.Input]
	acceptQueue *core.Unbounded[struct{}]

	connectTx chan types.ConnectInfo
	upgradeTx chan types.NodeId
	sendTx    chan types.SendMessageWork
	stopTx    chan types.NodeId

	done  chan struct{}
	fatal error
}

func (m *mainLoop) onWorkerPanic(err error) {
	m.inputQueue.In() <- types.FatalInput{Err: err}
}

// run is the main loop. Each iteration: snapshot the peer registry, build a
// composite selector over commands, worker results, and one case per running
// peer's inbound receiver, wait for one item, feed it to Protocol.transition,
// dispatch the outputs. The selector is rebuilt every iteration with
// reflect.Select because the peer set can grow and shrink between
// iterations (spec §4.2, §5, §9): there is no point trying to maintain it
// incrementally.
func (m *mainLoop) run() {
	proto := newProtocol()
	defer m.shutdown()

	for {
		input, shuttingDown := m.selectNext()
		if shuttingDown {
			// Caller closed the command channel: a clean shutdown, not a
			// fault. m.fatal stays nil so Terminated carries no reason.
			return
		}

		for _, output := range proto.transition(input) {
			m.dispatch(output)
		}

		if fatal, ok := input.(types.FatalInput); ok {
			m.fatal = fatal.Err
			return
		}
	}
}

const (
	caseCommand = iota
	caseInternalInput
	casePeerBase
)

// selectNext waits for the next Input. Once the caller closes its command
// channel, the supervisor stops accepting new commands and exits (spec §5
// cancellation model): shuttingDown reports exactly that case.
func (m *mainLoop) selectNext() (input types.Input, shuttingDown bool) {
	peers := m.peerRegistry.Snapshot()
	m.metrics.RunningPeers.Set(float64(len(peers)))

	cases := make([]reflect.SelectCase, 0, casePeerBase+len(peers))
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(m.commandRx)})
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(m.inputQueue.Out())})
	for _, entry := range peers {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(entry.Peer.Receiver())})
	}

	chosen, recv, recvOK := reflect.Select(cases)
	switch {
	case chosen == caseCommand:
		if !recvOK {
			return nil, true
		}
		cmd := recv.Interface().(types.Command)
		return types.CommandInput{Command: cmd}, false

	case chosen == caseInternalInput:
		if !recvOK {
			// The main loop itself never closes inputQueue while running, so
			// this should not happen; treat it the same as a clean
			// shutdown rather than spinning.
			return nil, true
		}
		return recv.Interface().(types.Input), false

	default:
		id := peers[chosen-casePeerBase].ID
		if !recvOK {
			// The peer's own read side ended without a Disconnect command.
			// Remove it from the registry here, the same as RunStop does for
			// a commanded stop: left in place, this now-dead entry's
			// already-closed channel would stay in every future composite
			// select (always immediately ready), live-locking the loop into
			// re-reporting the same disconnect forever (spec invariant #2).
			m.peerRegistry.Remove(id)
			return types.StoppedInput{ID: id, Reason: types.ErrPeerChannelClosed}, false
		}
		msg := recv.Interface().(types.Receive)
		return types.ReceiveInput{ID: id, Message: msg}, false
	}
}

// dispatch sends a single Output to its destination: events to the caller's
// event channel, internal work orders to the corresponding worker channel.
func (m *mainLoop) dispatch(output types.Output) {
	switch out := output.(type) {
	case types.EventOutput:
		m.recordMetric(out.Event)
		m.eventQueue.In() <- out.Event

	case types.InternalOutput:
		switch work := out.Internal.(type) {
		case types.AcceptWork:
			// Unbounded: two Accept commands in a row must each eventually
			// pull one connection (spec §8 scenario 3). A capacity-bound
			// signal channel with a non-blocking send would silently drop
			// the second one whenever the accept worker hasn't drained the
			// first yet, stranding a pending inbound connection forever.
			m.acceptQueue.In() <- struct{}{}
		case types.ConnectWork:
			m.connectTx <- work.Info
		case types.UpgradeWork:
			m.upgradeTx <- work.ID
		case types.SendMessageWork:
			m.sendTx <- work
		case types.StopWork:
			m.stopTx <- work.ID
		}
	}
}

func (m *mainLoop) recordMetric(ev types.Event) {
	switch ev.(type) {
	case types.ConnectedEvent:
		m.metrics.Connected.Inc()
	case types.UpgradedEvent:
		m.metrics.Upgraded.Inc()
	case types.UpgradeFailedEvent:
		m.metrics.UpgradeFailed.Inc()
	case types.DisconnectedEvent:
		m.metrics.Disconnected.Inc()
	}
}

// shutdown emits the Terminated event, closes the event queue so Recv()
// returns (nil, false) forever after (DESIGN.md open question #1), then
// closes every worker channel and blocks until all five workers have
// returned. A Supervisor is fully torn down — nothing left running — by the
// time Wait() returns (spec §8 goleak expectations). The event queue is
// unbounded, so this send is guaranteed to land instead of being a
// best-effort attempt raced against whether a caller happens to be in Recv().
func (m *mainLoop) shutdown() {
	m.eventQueue.In() <- types.TerminatedEvent{Reason: m.fatal}
	close(m.eventQueue.In())
	close(m.acceptQueue.In())
	close(m.connectTx)
	close(m.upgradeTx)
	close(m.sendTx)
	close(m.stopTx)

	m.invoker.Wait()
	// Only safe once every worker has returned: inputQueue.In() is shared
	// by all five of them, and closing a channel while another goroutine
	// might still send on it panics. This also stops inputQueue's relay
	// goroutine, so nothing from this Supervisor is left running.
	close(m.inputQueue.In())
	close(m.done)
}
