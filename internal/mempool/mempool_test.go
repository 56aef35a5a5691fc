package mempool

import (
	"testing"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/state"
)

func signedTx(t *testing.T, kp crypto.KeyPair, to crypto.H160, value uint64, nonce uint32) chain.SignedTransaction {
	t.Helper()
	raw := chain.RawTransaction{FromAddr: crypto.AddressOf(kp.Public), ToAddr: to, Value: value, Nonce: nonce}
	sig := crypto.Sign(raw.Encode(), kp.Private)
	return chain.SignedTransaction{Raw: raw, PubKey: kp.Public, Signature: sig}
}

func TestInsertIsIdempotent(t *testing.T) {
	mp := New()
	kp, _ := crypto.RandomKeyPair()
	to, _ := crypto.RandomKeyPair()
	tx := signedTx(t, kp, crypto.AddressOf(to.Public), 10, 1)

	mp.Insert(tx)
	mp.Insert(tx)
	if mp.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", mp.Len())
	}
}

func TestValidSubsetPartition(t *testing.T) {
	mp := New()
	s := state.Genesis()
	a0 := crypto.DeterministicKeyPair(0)
	to, _ := crypto.RandomKeyPair()

	valid := signedTx(t, a0, crypto.AddressOf(to.Public), 10, 1)
	invalidNonce := signedTx(t, a0, crypto.AddressOf(to.Public), 10, 99)

	mp.Insert(valid)
	mp.Insert(invalidNonce)

	validSet := mp.ValidSubset(s)
	if len(validSet) != 1 || validSet[0].Hash() != valid.Hash() {
		t.Fatalf("ValidSubset = %v, want just %v", validSet, valid.Hash())
	}
	invalidSet := mp.InvalidSubset(s)
	if len(invalidSet) != 1 || invalidSet[0].Hash() != invalidNonce.Hash() {
		t.Fatalf("InvalidSubset = %v, want just %v", invalidSet, invalidNonce.Hash())
	}
}

// P8 (mempool side): RemoveMany, the call made with a mined block's
// transaction hashes, leaves the mempool no longer containing them.
func TestRemoveManyEvictsIncluded(t *testing.T) {
	mp := New()
	a0 := crypto.DeterministicKeyPair(0)
	to, _ := crypto.RandomKeyPair()
	tx := signedTx(t, a0, crypto.AddressOf(to.Public), 10, 1)
	mp.Insert(tx)

	mp.RemoveMany([]crypto.H256{tx.Hash()})
	if mp.Contains(tx.Hash()) {
		t.Fatal("mempool still contains evicted transaction")
	}
}
