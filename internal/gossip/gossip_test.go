package gossip

import (
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"empower1.com/empower1blockchain/internal/blocktree"
	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/mempool"
	"empower1.com/empower1blockchain/internal/peer"
	"empower1.com/empower1blockchain/internal/wire"
)

// TestMain relaxes the network difficulty to the maximum (any hash
// satisfies it) for this package's tests only: handleBlocks enforces
// real proof-of-work, and hand-constructed test blocks cannot be
// mined by searching nonces at test time.
func TestMain(m *testing.M) {
	var easy crypto.H256
	for i := range easy {
		easy[i] = 0xFF
	}
	chain.Genesis.Header.Difficulty = easy
	chain.Difficulty = easy
	os.Exit(m.Run())
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

type fakePeer struct {
	id  uuid.UUID
	out []wire.Message
}

func newFakePeer() *fakePeer { return &fakePeer{id: uuid.New()} }

func (p *fakePeer) ID() uuid.UUID        { return p.id }
func (p *fakePeer) Write(m wire.Message) { p.out = append(p.out, m) }

func childOf(parent crypto.H256, nonce uint32) chain.Block {
	return chain.Block{
		Header: chain.Header{
			Parent:     parent,
			Nonce:      nonce,
			Difficulty: chain.Difficulty,
			Timestamp:  0,
			MerkleRoot: crypto.H256{},
		},
	}
}

func newWorker() (*Worker, *blocktree.Tree, *mempool.Mempool, *peer.Set) {
	tree := blocktree.New(nil)
	pool := mempool.New()
	peers := peer.NewSet()
	inbound := make(chan peer.Envelope)
	return NewWorker(inbound, peers, tree, pool, nopLogger{}), tree, pool, peers
}

func TestHandleBlocksInsertsKnownParent(t *testing.T) {
	w, tree, _, _ := newWorker()
	sender := newFakePeer()
	b := childOf(tree.Tip(), 1)

	w.dispatch(peer.Envelope{From: sender, Msg: wire.NewBlocks([]chain.Block{b})})

	if !tree.Contains(b.Hash()) {
		t.Fatal("a block with a known parent should be inserted")
	}
	if tree.Tip() != b.Hash() {
		t.Fatal("the new block should become the tip")
	}
}

func TestHandleBlocksBuffersOrphanAndRequestsParent(t *testing.T) {
	w, tree, _, _ := newWorker()
	sender := newFakePeer()
	missingParent := crypto.SHA256([]byte("nowhere"))
	orphan := childOf(missingParent, 1)

	w.dispatch(peer.Envelope{From: sender, Msg: wire.NewBlocks([]chain.Block{orphan})})

	if tree.Contains(orphan.Hash()) {
		t.Fatal("an orphan block should not be inserted directly")
	}
	drained := tree.DrainOrphansOf(missingParent)
	if len(drained) != 1 || drained[0].Hash() != orphan.Hash() {
		t.Fatal("the orphan should be buffered under its missing parent")
	}
}

func TestHandleBlocksDrainsWaitingOrphanOnParentArrival(t *testing.T) {
	w, tree, _, _ := newWorker()
	sender := newFakePeer()

	parent := childOf(tree.Tip(), 1)
	child := childOf(parent.Hash(), 2)

	// child arrives first: buffered as an orphan.
	w.dispatch(peer.Envelope{From: sender, Msg: wire.NewBlocks([]chain.Block{child})})
	if tree.Contains(child.Hash()) {
		t.Fatal("child should not be inserted before its parent arrives")
	}

	// parent arrives: should insert parent, then drain and insert child too.
	w.dispatch(peer.Envelope{From: sender, Msg: wire.NewBlocks([]chain.Block{parent})})
	require.Truef(t, tree.Contains(parent.Hash()) && tree.Contains(child.Hash()),
		"both parent and previously-orphaned child should now be in the tree, got parent=%s child=%s",
		spew.Sdump(parent), spew.Sdump(child))
	require.Equalf(t, child.Hash(), tree.Tip(), "tip should advance through the drained orphan")
}

func TestHandleTransactionsAdmitsValidAndRejectsInvalid(t *testing.T) {
	w, _, pool, _ := newWorker()
	sender := newFakePeer()

	a0 := crypto.DeterministicKeyPair(0)
	to, err := crypto.RandomKeyPair()
	if err != nil {
		t.Fatalf("RandomKeyPair: %v", err)
	}
	valid := signTx(t, a0, crypto.AddressOf(to.Public), 10, 1)
	invalid := signTx(t, a0, crypto.AddressOf(to.Public), 10, 99)

	w.dispatch(peer.Envelope{From: sender, Msg: wire.NewTransactions([]chain.SignedTransaction{valid, invalid})})

	if !pool.Contains(valid.Hash()) {
		t.Fatal("a valid transaction should be admitted")
	}
	if pool.Contains(invalid.Hash()) {
		t.Fatal("a transaction with a stale nonce should be rejected")
	}
}

func TestHandleNewBlockHashesRequestsUnknown(t *testing.T) {
	w, tree, _, peers := newWorker()
	sender := newFakePeer()
	other := newFakePeer()
	peers.Add(sender)
	peers.Add(other)
	known := tree.Tip()
	unknown := crypto.SHA256([]byte("future block"))

	w.dispatch(peer.Envelope{From: sender, Msg: wire.NewBlockHashes([]crypto.H256{known, unknown})})

	if !tree.Contains(known) {
		t.Fatal("sanity: genesis should already be known")
	}
	// §4.6: the GetBlocks request is flooded to every other peer, not
	// replied to the sender alone.
	if len(sender.out) != 0 {
		t.Fatalf("expected no reply sent back to the sender, got %d", len(sender.out))
	}
	if len(other.out) != 1 {
		t.Fatalf("expected exactly one GetBlocks broadcast to other peers, got %d", len(other.out))
	}
	got := other.out[0]
	if got.Kind != wire.KindGetBlocks || len(got.Hashes) != 1 || got.Hashes[0] != unknown {
		t.Fatalf("got %+v, want GetBlocks([unknown])", got)
	}
}

func signTx(t *testing.T, kp crypto.KeyPair, to crypto.H160, value uint64, nonce uint32) chain.SignedTransaction {
	t.Helper()
	raw := chain.RawTransaction{FromAddr: crypto.AddressOf(kp.Public), ToAddr: to, Value: value, Nonce: nonce}
	sig := crypto.Sign(raw.Encode(), kp.Private)
	return chain.SignedTransaction{Raw: raw, PubKey: kp.Public, Signature: sig}
}
