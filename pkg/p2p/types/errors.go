package types

import "errors"

// Sentinel errors for the error kinds in the error handling design. Workers
// wrap these with fmt.Errorf("%w: ...") to attach context before they cross
// into an Event or a FatalInput.
var (
	// ErrConnectionNotFound is returned by the upgrade worker when the id it
	// was told to upgrade is no longer in the connection registry.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrPeerNotFound indicates an invariant violation: the FSM believes a
	// peer is upgraded or running but the peer registry disagrees.
	ErrPeerNotFound = errors.New("peer not found in registry")

	// ErrDuplicatePeer indicates an invariant violation: the upgrade worker
	// tried to insert a peer for an id already present in the peer registry.
	ErrDuplicatePeer = errors.New("peer already present in registry")

	// ErrStateLockPoisoned indicates a registry mutex was poisoned by a
	// panicking holder.
	ErrStateLockPoisoned = errors.New("state lock poisoned")

	// ErrPeerChannelClosed is reported when a running peer's inbound
	// receiver closes without an explicit Disconnect command.
	ErrPeerChannelClosed = errors.New("peer channel closed")

	// ErrSupervisorTerminated is returned by Supervisor.Command once the main
	// loop has exited.
	ErrSupervisorTerminated = errors.New("supervisor terminated")
)
