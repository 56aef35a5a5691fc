// Package miner implements the proof-of-work mining loop: a state
// machine over Start(lambda)/Exit control signals that assembles
// candidate blocks from the mempool and searches nonces until a
// block's hash clears the network difficulty.
package miner

import (
	"math/rand"
	"sync"
	"time"

	"empower1.com/empower1blockchain/internal/blocktree"
	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/mempool"
	"empower1.com/empower1blockchain/internal/merkle"
	"empower1.com/empower1blockchain/internal/wire"
)

// Broadcaster is the subset of the peer transport the miner needs: it
// gossips a Message to every connected peer. The concrete transport
// lives outside the core (see internal/peer).
type Broadcaster interface {
	Broadcast(wire.Message)
}

// controlKind tags a control signal.
type controlKind int

const (
	signalStart controlKind = iota
	signalExit
)

type controlSignal struct {
	kind   controlKind
	lambda time.Duration
}

// operatingState is the miner's internal run state.
type operatingState int

const (
	statePaused operatingState = iota
	stateRun
	stateShutDown
)

// Handle lets other goroutines drive the miner: start it at a given
// pace, or tell it to exit.
type Handle struct {
	control chan controlSignal
}

// Start transitions the miner into Run(lambda): one PoW attempt per
// iteration, sleeping lambda between attempts (lambda == 0 means no
// sleep — mine as fast as possible).
func (h Handle) Start(lambda time.Duration) {
	h.control <- controlSignal{kind: signalStart, lambda: lambda}
}

// Exit tells the miner to shut down. Exit is terminal: the miner does
// not resume after it.
func (h Handle) Exit() {
	h.control <- controlSignal{kind: signalExit}
}

// Logger is the minimal logging surface the miner needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
}

// Miner owns the mining loop. Construct with New and run it with Run
// in its own goroutine.
type Miner struct {
	control chan controlSignal

	tree    *blocktree.Tree
	pool    *mempool.Mempool
	bcast   Broadcaster
	log     Logger

	// MaxTxPerBlock bounds how many mempool transactions a candidate
	// block includes. The spec's reference implementation hardcodes
	// 1; this is a tunable that must stay >= 1.
	MaxTxPerBlock int

	mu    sync.Mutex
	state operatingState
	lambda time.Duration
}

// New constructs a Miner in the initial Paused state, plus the Handle
// used to control it.
func New(tree *blocktree.Tree, pool *mempool.Mempool, bcast Broadcaster, log Logger) (*Miner, Handle) {
	ch := make(chan controlSignal)
	m := &Miner{
		control:       ch,
		tree:          tree,
		pool:          pool,
		bcast:         bcast,
		log:           log,
		MaxTxPerBlock: 1,
		state:         statePaused,
	}
	return m, Handle{control: ch}
}

// Run executes the mining loop until Exit is received. Call it in its
// own goroutine; it blocks until shutdown.
func (m *Miner) Run() {
	for {
		switch m.currentState() {
		case statePaused:
			m.handleSignal(<-m.control)
			continue
		case stateShutDown:
			return
		default: // stateRun
			select {
			case sig := <-m.control:
				m.handleSignal(sig)
			default:
			}
			if m.currentState() == stateShutDown {
				return
			}
			if m.currentState() == stateRun {
				m.attempt()
			}
		}
	}
}

func (m *Miner) currentState() operatingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Miner) currentLambda() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lambda
}

func (m *Miner) handleSignal(sig controlSignal) {
	switch sig.kind {
	case signalExit:
		m.log.Infof("miner: shutting down")
		m.mu.Lock()
		m.state = stateShutDown
		m.mu.Unlock()
	case signalStart:
		m.log.Infof("miner: starting in continuous mode with lambda=%s", sig.lambda)
		m.mu.Lock()
		m.state = stateRun
		m.lambda = sig.lambda
		m.mu.Unlock()
	}
}

// attempt performs exactly one PoW attempt, per §4.5.
func (m *Miner) attempt() {
	lambda := m.currentLambda()
	if lambda != 0 {
		time.Sleep(lambda)
	}

	tip := m.tree.Tip()
	tipState := m.tree.StateAtTip()
	parentBlock, ok := m.tree.Get(tip)
	if !ok {
		return
	}

	candidates := m.pool.ValidSubset(tipState)
	if len(candidates) < m.MaxTxPerBlock {
		return
	}
	txs := candidates[:m.MaxTxPerBlock]

	root := merkleRootOf(txs)
	header := chain.Header{
		Parent:     tip,
		Nonce:      rand.Uint32(),
		Difficulty: parentBlock.Header.Difficulty,
		Timestamp:  uint64(time.Now().UnixMilli()),
		MerkleRoot: root,
	}
	block := chain.Block{Header: header, Content: chain.Content{Transactions: txs}}

	if !block.Hash().LessOrEqual(header.Difficulty) {
		return
	}

	if err := m.tree.Insert(block); err != nil {
		m.log.Debugf("miner: failed to insert mined block: %v", err)
		return
	}

	included := make([]crypto.H256, len(txs))
	for i, tx := range txs {
		included[i] = tx.Hash()
	}
	m.pool.RemoveMany(included)

	newTipState := m.tree.StateAtTip()
	invalid := m.pool.InvalidSubset(newTipState)
	invalidHashes := make([]crypto.H256, len(invalid))
	for i, tx := range invalid {
		invalidHashes[i] = tx.Hash()
	}
	m.pool.RemoveMany(invalidHashes)

	hash := block.Hash()
	m.log.Infof("miner: mined block %s at height %d with %d transaction(s)", hash, m.tree.LengthOfLongestChain(), len(txs))
	m.bcast.Broadcast(wire.NewBlockHashes([]crypto.H256{hash}))
}

func merkleRootOf(txs []chain.SignedTransaction) crypto.H256 {
	if len(txs) == 0 {
		// An empty candidate never reaches here while MaxTxPerBlock >= 1
		// (attempt bails out before building a header when fewer than
		// MaxTxPerBlock candidates are available), but merkle.New panics on empty input, so
		// guard explicitly for callers that build a root directly.
		return crypto.H256{}
	}
	return merkle.New(txHashables(txs)).Root()
}

type txHashable chain.SignedTransaction

func (t txHashable) Hash() crypto.H256 { return chain.SignedTransaction(t).Hash() }

func txHashables(txs []chain.SignedTransaction) []txHashable {
	out := make([]txHashable, len(txs))
	for i, tx := range txs {
		out[i] = txHashable(tx)
	}
	return out
}
