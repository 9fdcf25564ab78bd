package types

// Internal is the sealed set of work orders the Protocol FSM issues to
// workers. These never leave the process.
type Internal interface {
	isInternal()
}

// AcceptWork tells the accept worker to pull the next pending connection.
type AcceptWork struct{}

func (AcceptWork) isInternal() {}

// ConnectWork tells the connect worker to dial a remote.
type ConnectWork struct {
	Info ConnectInfo
}

func (ConnectWork) isInternal() {}

// SendMessageWork tells the send worker to deliver a message to a peer.
type SendMessageWork struct {
	ID      NodeId
	Message Send
}

func (SendMessageWork) isInternal() {}

// StopWork tells the stop worker to tear down a peer.
type StopWork struct {
	ID NodeId
}

func (StopWork) isInternal() {}

// UpgradeWork tells the upgrade worker to promote a registered connection.
type UpgradeWork struct {
	ID NodeId
}

func (UpgradeWork) isInternal() {}
