package types

// Input is the sealed set of values the main loop's composite select can
// produce on any given iteration: a caller command, a worker result, or an
// inbound message (or disconnect) from a running peer.
type Input interface {
	isInput()
}

// CommandInput wraps a caller Command.
type CommandInput struct {
	Command Command
}

func (CommandInput) isInput() {}

// AcceptedInput reports a new inbound connection was registered.
type AcceptedInput struct {
	ID NodeId
}

func (AcceptedInput) isInput() {}

// ConnectedInput reports a new outbound connection was registered.
type ConnectedInput struct {
	ID NodeId
}

func (ConnectedInput) isInput() {}

// DuplicateConnRejectedInput reports a connection was closed because its id
// was already registered.
type DuplicateConnRejectedInput struct {
	ID       NodeId
	CloseErr error
}

func (DuplicateConnRejectedInput) isInput() {}

// UpgradedInput reports a connection was promoted to a running peer.
type UpgradedInput struct {
	ID NodeId
}

func (UpgradedInput) isInput() {}

// UpgradeFailedInput reports an upgrade attempt failed.
type UpgradeFailedInput struct {
	ID     NodeId
	Reason error
}

func (UpgradeFailedInput) isInput() {}

// StoppedInput reports a peer was torn down, commanded or spontaneous. Reason
// is nil for a clean, commanded stop.
type StoppedInput struct {
	ID     NodeId
	Reason error
}

func (StoppedInput) isInput() {}

// ReceiveInput reports an inbound application message from a running peer.
type ReceiveInput struct {
	ID      NodeId
	Message Receive
}

func (ReceiveInput) isInput() {}

// FatalInput reports an invariant violation (missing peer on Send/Stop,
// duplicate peer on Upgrade) or a recovered worker panic. The main loop
// terminates upon receiving one.
type FatalInput struct {
	Err error
}

func (FatalInput) isInput() {}
