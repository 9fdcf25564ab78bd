// Package transport provides a concrete core.Transport: plain TCP
// connections authenticated with a Noise XX handshake; traffic after the
// handshake is not encrypted. NodeId
// is derived from the remote's static public key once the handshake
// completes (spec §4.2), so an id is never trusted until Noise has verified
// it belongs to whoever is on the other end of the socket.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"github.com/flynn/noise"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/core"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherAESGCM, noise.HashSHA256)

// TCPNoise is a core.Transport over net.Listener/net.Dial, authenticated with
// a static Noise XX key pair. Every accepted or dialed connection completes
// the handshake before it is handed back to the supervisor, so Connection's
// PublicKey() is always the peer's verified static key.
type TCPNoise struct {
	staticKey noise.DHKey
	log       definition.Logger
}

// New creates a TCPNoise transport with a freshly generated static key pair.
func New(log definition.Logger) (*TCPNoise, error) {
	key, err := cipherSuite.GenerateKeypair(nil)
	if err != nil {
		return nil, fmt.Errorf("generate noise keypair: %w", err)
	}
	return &TCPNoise{staticKey: key, log: log}, nil
}

// PublicKey returns this transport's own static public key, useful for
// printing a dialable identity before any connection exists.
func (t *TCPNoise) PublicKey() []byte {
	return t.staticKey.Public
}

func (t *TCPNoise) Bind(info core.BindInfo) (core.Endpoint, core.Incoming, error) {
	ln, err := net.Listen("tcp", info.Address)
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s: %w", info.Address, err)
	}
	endpoint := &tcpEndpoint{staticKey: t.staticKey}
	incoming := &tcpIncoming{ln: ln, staticKey: t.staticKey, log: t.log}
	return endpoint, incoming, nil
}

type tcpEndpoint struct {
	staticKey noise.DHKey
}

func (e *tcpEndpoint) Connect(info types.ConnectInfo) (core.Connection, error) {
	conn, err := net.Dial("tcp", info.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", info.Address, err)
	}
	remoteKey, err := handshake(conn, e.staticKey, true)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("noise handshake with %s: %w", info.Address, err)
	}
	return &framedConn{Conn: conn, remoteKey: remoteKey}, nil
}

type tcpIncoming struct {
	ln        net.Listener
	staticKey noise.DHKey
	log       definition.Logger
}

func (i *tcpIncoming) Next() (core.Connection, error, bool) {
	conn, err := i.ln.Accept()
	if err != nil {
		// A closed listener is the only expected termination; anything else
		// is logged here, and the Incoming iterator itself is done either
		// way.
		if !errors.Is(err, net.ErrClosed) {
			i.log.Warnf("p2p: listener accept failed: %v", err)
		}
		return nil, nil, false
	}
	remoteKey, err := handshake(conn, i.staticKey, false)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("noise handshake with %s: %w", conn.RemoteAddr(), err), true
	}
	return &framedConn{Conn: conn, remoteKey: remoteKey}, nil, true
}

// handshake runs a Noise XX exchange over conn and returns the remote's
// verified static public key. XX means neither side's static key is known
// to the other up front; both are revealed and authenticated during the
// three-message exchange.
func handshake(conn net.Conn, staticKey noise.DHKey, initiator bool) ([]byte, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Random:        nil,
		Pattern:       noise.HandshakeXX,
		Initiator:     initiator,
		StaticKeypair: staticKey,
	})
	if err != nil {
		return nil, err
	}

	var msg []byte
	if initiator {
		msg, _, _, err = hs.WriteMessage(nil, nil)
		if err != nil {
			return nil, err
		}
		if err := writeFrame(conn, msg); err != nil {
			return nil, err
		}
		resp, err := readFrame(conn)
		if err != nil {
			return nil, err
		}
		if _, _, _, err = hs.ReadMessage(nil, resp); err != nil {
			return nil, err
		}
		msg, _, _, err = hs.WriteMessage(nil, nil)
		if err != nil {
			return nil, err
		}
		if err := writeFrame(conn, msg); err != nil {
			return nil, err
		}
	} else {
		req, err := readFrame(conn)
		if err != nil {
			return nil, err
		}
		if _, _, _, err = hs.ReadMessage(nil, req); err != nil {
			return nil, err
		}
		msg, _, _, err = hs.WriteMessage(nil, nil)
		if err != nil {
			return nil, err
		}
		if err := writeFrame(conn, msg); err != nil {
			return nil, err
		}
		final, err := readFrame(conn)
		if err != nil {
			return nil, err
		}
		if _, _, _, err = hs.ReadMessage(nil, final); err != nil {
			return nil, err
		}
	}

	return hs.PeerStatic(), nil
}

const maxHandshakeFrame = 4096

func writeFrame(conn net.Conn, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := conn.Write(header[:]); err != nil {
		return err
	}
	_, err := conn.Write(payload)
	return err
}

func readFrame(conn net.Conn) ([]byte, error) {
	var header [4]byte
	if _, err := readFull(conn, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxHandshakeFrame {
		return nil, fmt.Errorf("handshake frame too large: %d bytes", size)
	}
	buf := make([]byte, size)
	if _, err := readFull(conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// framedConn adapts a net.Conn, post-handshake, to core.Connection. The
// Noise session itself only protects the handshake; application framing for
// the upgraded yamux session layers independently on top (spec §4.5), so
// this type does no further encryption of its own past the handshake.
type framedConn struct {
	net.Conn
	remoteKey []byte
}

func (f *framedConn) PublicKey() []byte {
	return f.remoteKey
}
