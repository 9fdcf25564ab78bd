package core

import (
	"io"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// BindInfo carries whatever a Transport needs to bind a listener.
type BindInfo struct {
	Address string
}

// Connection is an established, not-yet-upgraded byte transport to a remote.
// It is exclusively owned by whichever registry currently holds it.
type Connection interface {
	io.ReadWriteCloser

	// PublicKey returns the remote's long-lived public key, from which a
	// NodeId is derived.
	PublicKey() []byte
}

// Endpoint dials outgoing connections.
type Endpoint interface {
	Connect(info types.ConnectInfo) (Connection, error)
}

// Incoming is a blocking iterator of accepted connections. Next returns
// (nil, nil, false) once the underlying listener is closed and drained; it
// never blocks forever past that point.
type Incoming interface {
	Next() (conn Connection, err error, ok bool)
}

// Transport is the abstract contract the supervisor consumes: bind a
// listener, yield incoming connections on demand, and dial outgoing ones.
// Its own protocol (TCP framing, Noise handshake, etc.) is entirely opaque to
// the supervisor.
type Transport interface {
	Bind(info BindInfo) (Endpoint, Incoming, error)
}
