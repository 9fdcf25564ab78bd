package core

import (
	"sync"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/peer"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// ConnEntry pairs a not-yet-upgraded Connection with the Direction it was
// established in.
type ConnEntry struct {
	Direction types.Direction
	Conn      Connection
}

// ConnRegistry maps NodeId to a pending connection. At most one entry exists
// per NodeId; an entry lives only between registration (Accept/Connect) and
// consumption (Upgrade, which removes it).
type ConnRegistry struct {
	mu      sync.Mutex
	entries map[types.NodeId]ConnEntry
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{entries: make(map[types.NodeId]ConnEntry)}
}

// Insert registers conn for id unless an entry is already present, in which
// case ok is false and the caller owns conn again (it must close it).
func (r *ConnRegistry) Insert(id types.NodeId, dir types.Direction, conn Connection) (ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return false
	}
	r.entries[id] = ConnEntry{Direction: dir, Conn: conn}
	return true
}

// Remove deletes and returns the entry for id, if any.
func (r *ConnRegistry) Remove(id types.NodeId) (ConnEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return entry, ok
}

// PeerRegistry maps NodeId to a running Peer. At most one entry per NodeId.
type PeerRegistry struct {
	mu      sync.RWMutex
	entries map[types.NodeId]peer.Running
}

func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{entries: make(map[types.NodeId]peer.Running)}
}

// Insert registers p for id unless an entry is already present, in which
// case ok is false: the caller holds an invariant violation (two upgrades
// raced for the same id) and must treat it as fatal.
func (r *PeerRegistry) Insert(id types.NodeId, p peer.Running) (ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return false
	}
	r.entries[id] = p
	return true
}

// Remove deletes and returns the entry for id, if any.
func (r *PeerRegistry) Remove(id types.NodeId) (peer.Running, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return p, ok
}

// Get returns the entry for id without removing it, used by the send
// worker.
func (r *PeerRegistry) Get(id types.NodeId) (peer.Running, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[id]
	return p, ok
}

// PeerEntry is one snapshot row: an id paired with its running peer.
type PeerEntry struct {
	ID   types.NodeId
	Peer peer.Running
}

// Snapshot returns every currently-running peer. The main loop calls this
// once per iteration to rebuild its composite select, because the peer set
// can grow and shrink between iterations (spec §4.2).
func (r *PeerRegistry) Snapshot() []PeerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PeerEntry, 0, len(r.entries))
	for id, p := range r.entries {
		out = append(out, PeerEntry{ID: id, Peer: p})
	}
	return out
}

// Len reports the number of running peers.
func (r *PeerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
