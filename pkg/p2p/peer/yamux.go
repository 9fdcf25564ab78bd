package peer

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	yamux "github.com/libp2p/go-yamux/v5"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// maxFrameSize bounds a single length-prefixed frame read off a yamux stream,
// guarding against a malicious or buggy remote claiming an unbounded length.
const maxFrameSize = 16 << 20

// yamuxPreRun wraps a raw connection before it has been run with any
// streams. client records which side of the yamux session this end will be:
// it must agree with how the underlying Connection was established
// (Outgoing dials are the yamux client, Incoming accepts are the server), or
// stream opens on one end will never be accepted on the other.
type yamuxPreRun struct {
	conn   io.ReadWriteCloser
	id     types.NodeId
	client bool
	log    definition.Logger
}

// NewPreRun constructs a PreRun peer from an established connection.
func NewPreRun(conn io.ReadWriteCloser, id types.NodeId, client bool, log definition.Logger) PreRun {
	return &yamuxPreRun{conn: conn, id: id, client: client, log: log}
}

func (p *yamuxPreRun) Run(streams []types.StreamName) (Running, error) {
	cfg := yamux.DefaultConfig()
	var session *yamux.Session
	var err error
	if p.client {
		session, err = yamux.Client(p.conn, cfg, nil)
	} else {
		session, err = yamux.Server(p.conn, cfg, nil)
	}
	if err != nil {
		return nil, err
	}

	running := &runningPeer{
		id:      p.id,
		log:     p.log,
		session: session,
		streams: make(map[types.StreamName]*yamux.Stream, len(streams)),
		sendCh:  make(chan types.Send, 256),
		recvCh:  make(chan types.Receive, 256),
		done:    make(chan struct{}),
	}

	for _, name := range streams {
		var stream *yamux.Stream
		var err error
		if p.client {
			stream, err = session.OpenStream(context.Background())
		} else {
			stream, err = session.AcceptStream()
		}
		if err != nil {
			session.Close()
			return nil, err
		}
		running.streams[name] = stream
		go running.readLoop(name, stream)
	}

	go running.writeLoop()

	return running, nil
}

// runningPeer multiplexes Send/Receive over named yamux streams opened (by
// the dialing side) or accepted (by the listening side) atop a single yamux
// session.
type runningPeer struct {
	id      types.NodeId
	log     definition.Logger
	session *yamux.Session

	mu      sync.Mutex
	streams map[types.StreamName]*yamux.Stream
	sendCh  chan types.Send
	recvCh  chan types.Receive
	done    chan struct{}
	stopOne sync.Once
}

func (p *runningPeer) ID() types.NodeId { return p.id }

// Send queues msg for the write loop. The queue is a channel of 256
// messages, not an unbounded one: when it is full, Send blocks until the
// write loop takes a message or the peer is stopped.
func (p *runningPeer) Send(msg types.Send) error {
	select {
	case p.sendCh <- msg:
		return nil
	case <-p.done:
		return errors.New("peer stopped")
	}
}

func (p *runningPeer) Receiver() <-chan types.Receive { return p.recvCh }

func (p *runningPeer) Stop() error {
	var err error
	p.stopOne.Do(func() {
		close(p.done)
		err = p.session.Close()
		close(p.recvCh)
	})
	return err
}

func (p *runningPeer) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.sendCh:
			p.mu.Lock()
			stream, ok := p.streams[msg.Stream]
			p.mu.Unlock()
			if !ok {
				p.log.Warnf("p2p: dropping send on unknown stream %q for %s", msg.Stream, p.id)
				continue
			}
			if err := writeFrame(stream, msg.Payload); err != nil {
				p.log.Errorf("p2p: write failed to %s on stream %q: %v", p.id, msg.Stream, err)
			}
		}
	}
}

func (p *runningPeer) readLoop(name types.StreamName, stream *yamux.Stream) {
	for {
		payload, err := readFrame(stream)
		if err != nil {
			if err != io.EOF {
				p.log.Debugf("p2p: read loop for %s stream %q ending: %v", p.id, name, err)
			}
			// The read side has ended; stopping the peer closes Receiver()
			// so the supervisor sees the disconnect. A no-op if already
			// stopped.
			p.Stop()
			return
		}
		select {
		case p.recvCh <- types.Receive{Stream: name, Payload: payload}:
		case <-p.done:
			return
		}
	}
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, errors.New("frame exceeds maximum size")
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
