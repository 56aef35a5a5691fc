// Package gossip implements the inbound message dispatch worker: a
// pool of goroutines draining a shared channel of peer.Envelope,
// applying the block-acceptance (§4.7) and transaction-admission
// (§4.8) algorithms, and re-broadcasting what other peers need to
// hear about.
package gossip

import (
	"strconv"
	"time"

	"github.com/decred/dcrd/lru"

	"empower1.com/empower1blockchain/internal/blocktree"
	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/mempool"
	"empower1.com/empower1blockchain/internal/peer"
	"empower1.com/empower1blockchain/internal/wire"
)

// recentCacheSize bounds the announced-hash dedup cache. It trades
// memory for fewer redundant GetBlocks/GetTransactions round-trips;
// it is never consulted for correctness, only for request fan-out.
const recentCacheSize = 4096

// Logger is the minimal logging surface a worker needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Worker dispatches inbound envelopes against a shared BlockTree and
// Mempool. Multiple Workers may run concurrently over the same
// Inbound channel and shared state, mirroring the original node's
// num_worker goroutine pool.
type Worker struct {
	Inbound <-chan peer.Envelope
	Peers   *peer.Set
	Tree    *blocktree.Tree
	Pool    *mempool.Mempool
	Log     Logger

	recentBlocks *lru.Cache
	recentTxs    *lru.Cache
}

// NewWorker constructs a Worker ready to Run. Multiple Workers sharing
// the same Inbound channel, Tree, and Pool form a worker pool; each
// Worker keeps its own dedup cache since the cache is local-optimization
// state, not shared correctness state.
func NewWorker(inbound <-chan peer.Envelope, peers *peer.Set, tree *blocktree.Tree, pool *mempool.Mempool, log Logger) *Worker {
	return &Worker{
		Inbound:      inbound,
		Peers:        peers,
		Tree:         tree,
		Pool:         pool,
		Log:          log,
		recentBlocks: lru.NewCache(recentCacheSize),
		recentTxs:    lru.NewCache(recentCacheSize),
	}
}

// Run drains Inbound until it closes, dispatching each envelope by
// Kind. Call it in its own goroutine.
func (w *Worker) Run() {
	for env := range w.Inbound {
		w.dispatch(env)
	}
}

func (w *Worker) dispatch(env peer.Envelope) {
	msg := env.Msg
	switch msg.Kind {
	case wire.KindPing:
		w.Log.Debugf("gossip: ping %d from %s", msg.Ping, env.From.ID())
		env.From.Write(wire.NewPong(strconv.FormatUint(uint64(msg.Ping), 10)))
	case wire.KindPong:
		w.Log.Debugf("gossip: pong from %s", env.From.ID())
	case wire.KindNewBlockHashes:
		w.handleNewBlockHashes(env, msg.Hashes)
	case wire.KindGetBlocks:
		w.handleGetBlocks(env, msg.Hashes)
	case wire.KindBlocks:
		w.handleBlocks(env, msg.Blocks)
	case wire.KindNewTransactionHashes:
		w.handleNewTxHashes(env, msg.Hashes)
	case wire.KindGetTransactions:
		w.handleGetTransactions(env, msg.Hashes)
	case wire.KindTransactions:
		w.handleTransactions(env, msg.Transactions)
	}
}

// handleNewBlockHashes requests any hash not already known, per §4.6.
func (w *Worker) handleNewBlockHashes(env peer.Envelope, hashes []crypto.H256) {
	var wanted []crypto.H256
	for _, h := range hashes {
		if w.Tree.Contains(h) {
			continue
		}
		if w.recentBlocks.Contains(h) {
			continue
		}
		wanted = append(wanted, h)
	}
	if len(wanted) == 0 {
		return
	}
	for _, h := range wanted {
		w.recentBlocks.Add(h)
	}
	w.Peers.BroadcastExcept(wire.NewGetBlocks(wanted), env.From.ID())
}

// handleGetBlocks floods back every requested hash this node holds.
func (w *Worker) handleGetBlocks(env peer.Envelope, hashes []crypto.H256) {
	blocks := w.Tree.GetMany(hashes)
	if len(blocks) == 0 {
		return
	}
	w.Peers.Broadcast(wire.NewBlocks(blocks))
}

// handleBlocks implements §4.7 block acceptance: skip already-known
// blocks, reject blocks failing the PoW/difficulty check, insert
// blocks whose parent is known (draining any orphans that were
// waiting on it, iteratively, per the design notes on avoiding
// recursion), buffer the rest as orphans and request their parent.
// Newly accepted hashes are re-announced with NewBlockHashes.
func (w *Worker) handleBlocks(env peer.Envelope, blocks []chain.Block) {
	var accepted []crypto.H256
	now := uint64(time.Now().UnixMilli())

	for _, block := range blocks {
		hash := block.Hash()
		if w.Tree.Contains(hash) {
			continue
		}
		if !hash.LessOrEqual(chain.Genesis.Header.Difficulty) {
			w.Log.Warnf("gossip: rejecting block %s: fails PoW check", hash)
			continue
		}
		if block.Header.Difficulty != chain.Genesis.Header.Difficulty {
			w.Log.Warnf("gossip: rejecting block %s: difficulty mismatch", hash)
			continue
		}

		accepted = append(accepted, hash)

		if !w.Tree.Contains(block.Header.Parent) {
			w.Log.Debugf("gossip: buffering orphan block %s awaiting parent %s", hash, block.Header.Parent)
			w.Tree.InsertOrphan(block.Header.Parent, block)
			w.Peers.BroadcastExcept(wire.NewGetBlocks([]crypto.H256{block.Header.Parent}), env.From.ID())
			continue
		}

		w.acceptAndDrainOrphans(block, now)
	}

	if len(accepted) > 0 {
		w.Peers.BroadcastExcept(wire.NewBlockHashes(accepted), env.From.ID())
	}
}

// acceptAndDrainOrphans inserts block (whose parent is already known)
// and then works an iterative worklist of orphans that become
// insertable as a result, since inserting a block can make its own
// children — previously buffered orphans — ready in turn.
func (w *Worker) acceptAndDrainOrphans(block chain.Block, receivedAtMS uint64) {
	worklist := []chain.Block{block}
	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]

		hash := b.Hash()
		if err := w.Tree.Insert(b); err != nil {
			w.Log.Warnf("gossip: failed to insert block %s: %v", hash, err)
			continue
		}

		delay := int64(receivedAtMS) - int64(b.Header.Timestamp)
		if delay < 0 {
			delay = 0
		}
		w.Tree.SetOrigin(hash, delay)

		included := make([]crypto.H256, len(b.Content.Transactions))
		for i, tx := range b.Content.Transactions {
			included[i] = tx.Hash()
		}
		w.Pool.RemoveMany(included)

		worklist = append(worklist, w.Tree.DrainOrphansOf(hash)...)
	}
}

// handleNewTxHashes requests any transaction hash not already held.
func (w *Worker) handleNewTxHashes(env peer.Envelope, hashes []crypto.H256) {
	var wanted []crypto.H256
	for _, h := range hashes {
		if w.Pool.Contains(h) {
			continue
		}
		if w.recentTxs.Contains(h) {
			continue
		}
		wanted = append(wanted, h)
	}
	if len(wanted) == 0 {
		return
	}
	for _, h := range wanted {
		w.recentTxs.Add(h)
	}
	w.Peers.BroadcastExcept(wire.NewGetTransactions(wanted), env.From.ID())
}

// handleGetTransactions floods back every requested transaction this
// node holds in its mempool.
func (w *Worker) handleGetTransactions(env peer.Envelope, hashes []crypto.H256) {
	txs := w.Pool.GetMany(hashes)
	if len(txs) == 0 {
		return
	}
	w.Peers.Broadcast(wire.NewTransactions(txs))
}

// handleTransactions implements §4.8 transaction admission: skip
// already-held transactions, validate the rest against the current
// tip state, admit the valid ones into the mempool, and re-announce
// what was newly admitted.
func (w *Worker) handleTransactions(env peer.Envelope, txs []chain.SignedTransaction) {
	tipState := w.Tree.StateAtTip()
	var admitted []crypto.H256

	for _, tx := range txs {
		hash := tx.Hash()
		if w.Pool.Contains(hash) {
			continue
		}
		if !w.Pool.IsValid(tipState, tx) {
			w.Log.Debugf("gossip: rejecting invalid transaction %s", hash)
			continue
		}
		w.Pool.Insert(tx)
		admitted = append(admitted, hash)
	}

	if len(admitted) > 0 {
		w.Peers.BroadcastExcept(wire.NewTxHashes(admitted), env.From.ID())
	}
}
