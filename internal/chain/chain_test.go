package chain

import (
	"testing"

	"empower1.com/empower1blockchain/internal/crypto"
)

func TestRawTransactionEncodeIsDeterministic(t *testing.T) {
	raw := RawTransaction{FromAddr: crypto.H160{1}, ToAddr: crypto.H160{2}, Value: 42, Nonce: 7}
	if string(raw.Encode()) != string(raw.Encode()) {
		t.Fatal("encoding the same transaction twice produced different bytes")
	}
	other := raw
	other.Nonce = 8
	if string(raw.Encode()) == string(other.Encode()) {
		t.Fatal("transactions differing only in nonce encoded identically")
	}
}

func TestSignedTransactionHashChangesWithSignature(t *testing.T) {
	raw := RawTransaction{FromAddr: crypto.H160{1}, ToAddr: crypto.H160{2}, Value: 42, Nonce: 1}
	a := SignedTransaction{Raw: raw, PubKey: []byte("pub"), Signature: []byte("sig-a")}
	b := SignedTransaction{Raw: raw, PubKey: []byte("pub"), Signature: []byte("sig-b")}
	if a.Hash() == b.Hash() {
		t.Fatal("transactions differing only in signature hashed identically")
	}
}

func TestBlockHashChangesWithNonce(t *testing.T) {
	b1 := Genesis
	b1.Header.Nonce = 1
	b2 := Genesis
	b2.Header.Nonce = 2
	if b1.Hash() == b2.Hash() {
		t.Fatal("blocks differing only in nonce hashed identically")
	}
}

func TestGenesisHashIsStable(t *testing.T) {
	if Genesis.Hash() != GenesisHash {
		t.Fatal("GenesisHash does not match Genesis.Hash()")
	}
}

func TestICOBalanceDescends(t *testing.T) {
	if ICOBalance(0) != 10000 {
		t.Fatalf("ICOBalance(0) = %d, want 10000", ICOBalance(0))
	}
	if ICOBalance(9) != 1000 {
		t.Fatalf("ICOBalance(9) = %d, want 1000", ICOBalance(9))
	}
}
