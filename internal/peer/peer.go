// Package peer models a connected gossip peer: a generated identity
// and a handle to write wire messages back to it. The concrete
// transport (internal/peer/wsconn.go) adapts a websocket connection
// to this contract; gossip/miner code only depends on the Handle
// interface here.
package peer

import (
	"sync"

	"github.com/google/uuid"

	"empower1.com/empower1blockchain/internal/wire"
)

// Handle is how the rest of the node addresses a single connected
// peer: write a message to it, or read its identity back.
type Handle interface {
	ID() uuid.UUID
	Write(wire.Message)
}

// Set is a concurrency-safe registry of currently connected peers,
// keyed by ID, and the Broadcaster the miner and gossip worker use to
// fan a message out to all of them.
type Set struct {
	mu    sync.RWMutex
	peers map[uuid.UUID]Handle
}

// NewSet constructs an empty peer set.
func NewSet() *Set {
	return &Set{peers: make(map[uuid.UUID]Handle)}
}

// Add registers h, keyed by its own ID.
func (s *Set) Add(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[h.ID()] = h
}

// Remove drops the peer with the given id, if present.
func (s *Set) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, id)
}

// All returns a snapshot of currently connected peers.
func (s *Set) All() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Handle, 0, len(s.peers))
	for _, h := range s.peers {
		out = append(out, h)
	}
	return out
}

// Broadcast writes msg to every currently connected peer, mirroring
// the teacher's server-broadcast pattern.
func (s *Set) Broadcast(msg wire.Message) {
	s.BroadcastExcept(msg, uuid.Nil)
}

// BroadcastExcept writes msg to every peer other than excluding — used
// by the gossip worker to avoid echoing a message back to its sender.
func (s *Set) BroadcastExcept(msg wire.Message, excluding uuid.UUID) {
	for _, h := range s.All() {
		if h.ID() == excluding {
			continue
		}
		h.Write(msg)
	}
}
