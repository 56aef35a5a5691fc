// Package blocktree implements the hash-indexed block tree: the
// chain store, longest-chain tip tracking, per-block account state,
// and the orphan (pending-parent) buffer.
package blocktree

import (
	"fmt"
	"sync"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/state"
)

// Origin records how a block arrived: mined locally, or received from
// a peer with the observed propagation delay.
type Origin struct {
	Mined   bool
	DelayMS int64 // meaningful only when !Mined; see DESIGN.md on clock skew
}

// EventHandler is called after a block is inserted, mirroring the
// teacher's decoupled-logging callback pattern. handler may be nil.
type EventHandler func(format string, args ...any)

// ErrParentNotFound is returned by Insert when the block's parent is
// not yet present in the tree; the caller should buffer the block as
// an orphan instead.
var ErrParentNotFound = fmt.Errorf("blocktree: parent not found")

// Tree is the block tree. All public methods are safe for concurrent
// use and each appears atomic to callers.
type Tree struct {
	mu sync.RWMutex

	blocks  map[crypto.H256]chain.Block
	length  map[crypto.H256]uint64
	state   map[crypto.H256]state.State
	origin  map[crypto.H256]Origin
	orphans map[crypto.H256][]chain.Block

	tip crypto.H256

	ev EventHandler
}

// New constructs a tree containing only the genesis block, seeded
// with the ICO state.
func New(ev EventHandler) *Tree {
	g := chain.Genesis
	gHash := g.Hash()
	t := &Tree{
		blocks:  map[crypto.H256]chain.Block{gHash: g},
		length:  map[crypto.H256]uint64{gHash: 0},
		state:   map[crypto.H256]state.State{gHash: state.Genesis()},
		origin:  map[crypto.H256]Origin{gHash: {Mined: true}},
		orphans: map[crypto.H256][]chain.Block{},
		tip:     gHash,
		ev:      ev,
	}
	return t
}

func (t *Tree) logf(format string, args ...any) {
	if t.ev != nil {
		t.ev(format, args...)
	}
}

// Contains reports whether hash is a known block.
func (t *Tree) Contains(hash crypto.H256) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.blocks[hash]
	return ok
}

// Get returns the block for hash, if known.
func (t *Tree) Get(hash crypto.H256) (chain.Block, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.blocks[hash]
	return b, ok
}

// GetMany returns every known block among hashes, in no particular
// order, silently skipping any not present.
func (t *Tree) GetMany(hashes []crypto.H256) []chain.Block {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]chain.Block, 0, len(hashes))
	for _, h := range hashes {
		if b, ok := t.blocks[h]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Tip returns the current tip hash.
func (t *Tree) Tip() crypto.H256 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tip
}

// LengthOfLongestChain returns length[tip].
func (t *Tree) LengthOfLongestChain() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.length[t.tip]
}

// LengthOf returns length[hash], or (0, false) if hash is unknown.
func (t *Tree) LengthOf(hash crypto.H256) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	l, ok := t.length[hash]
	return l, ok
}

// StateAtTip returns state[tip].
func (t *Tree) StateAtTip() state.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state[t.tip]
}

// StateAt returns state[hash], if known.
func (t *Tree) StateAt(hash crypto.H256) (state.State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.state[hash]
	return s, ok
}

// BlocksInLongestChain walks from tip to genesis following parent
// pointers and returns the hashes in tip-to-genesis order.
func (t *Tree) BlocksInLongestChain() []crypto.H256 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []crypto.H256
	cur := t.tip
	for cur != chain.GenesisHash {
		out = append(out, cur)
		cur = t.blocks[cur].Header.Parent
	}
	out = append(out, chain.GenesisHash)
	return out
}

// Insert records block, whose parent must already be present.
// Insert computes the new length, the post-block state (by applying
// block's transactions to the parent's state), records the origin as
// Mined by default (callers receiving a block over the network
// overwrite it via SetOrigin), and updates tip only on a strictly
// greater length — preserving first-arrival tie-breaking.
func (t *Tree) Insert(block chain.Block) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	parentHash := block.Header.Parent
	parentLength, ok := t.length[parentHash]
	if !ok {
		return ErrParentNotFound
	}
	parentState, ok := t.state[parentHash]
	if !ok {
		return ErrParentNotFound
	}

	h := block.Hash()
	length := parentLength + 1

	t.blocks[h] = block
	t.length[h] = length
	t.state[h] = state.Apply(parentState, block.Content.Transactions)
	if _, exists := t.origin[h]; !exists {
		t.origin[h] = Origin{Mined: true}
	}
	t.logf("blocktree: inserted block %s (length %d)", h, length)

	if length > t.length[t.tip] {
		t.tip = h
		t.logf("blocktree: tip advanced to %s (length %d)", h, length)
	}
	return nil
}

// SetOrigin records that block h was received from the network with
// the given propagation delay, overwriting the default Mined origin
// that Insert assigns.
func (t *Tree) SetOrigin(h crypto.H256, delayMS int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.origin[h] = Origin{Mined: false, DelayMS: delayMS}
}

// OriginOf returns the recorded origin of h, if known.
func (t *Tree) OriginOf(h crypto.H256) (Origin, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, ok := t.origin[h]
	return o, ok
}

// InsertOrphan buffers block under its parent hash, awaiting the
// parent's arrival.
func (t *Tree) InsertOrphan(parent crypto.H256, block chain.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orphans[parent] = append(t.orphans[parent], block)
}

// DrainOrphansOf atomically removes and returns the orphans waiting
// on parent, in the order they were buffered.
func (t *Tree) DrainOrphansOf(parent crypto.H256) []chain.Block {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.orphans[parent]
	delete(t.orphans, parent)
	return out
}
