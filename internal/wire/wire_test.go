package wire

import (
	"testing"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
)

func signedTx(t *testing.T) chain.SignedTransaction {
	t.Helper()
	kp, err := crypto.RandomKeyPair()
	if err != nil {
		t.Fatalf("RandomKeyPair: %v", err)
	}
	raw := chain.RawTransaction{FromAddr: crypto.AddressOf(kp.Public), ToAddr: crypto.H160{9}, Value: 10, Nonce: 1}
	sig := crypto.Sign(raw.Encode(), kp.Private)
	return chain.SignedTransaction{Raw: raw, PubKey: kp.Public, Signature: sig}
}

func TestPingPongRoundTrip(t *testing.T) {
	got, err := Decode(Encode(NewPing(42)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != KindPing || got.Ping != 42 {
		t.Fatalf("got %+v, want Ping=42", got)
	}

	got, err = Decode(Encode(NewPong("42")))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != KindPong || got.Pong != "42" {
		t.Fatalf("got %+v, want Pong=42", got)
	}
}

func TestHashListRoundTrip(t *testing.T) {
	hashes := []crypto.H256{crypto.SHA256([]byte("a")), crypto.SHA256([]byte("b"))}
	for _, ctor := range []func([]crypto.H256) Message{NewBlockHashes, NewGetBlocks, NewTxHashes, NewGetTransactions} {
		got, err := Decode(Encode(ctor(hashes)))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(got.Hashes) != 2 || got.Hashes[0] != hashes[0] || got.Hashes[1] != hashes[1] {
			t.Fatalf("got %+v, want %+v", got.Hashes, hashes)
		}
	}
}

func TestTransactionsRoundTrip(t *testing.T) {
	tx := signedTx(t)
	got, err := Decode(Encode(NewTransactions([]chain.SignedTransaction{tx})))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Hash() != tx.Hash() {
		t.Fatalf("round-tripped transaction hash mismatch")
	}
}

func TestBlocksRoundTrip(t *testing.T) {
	tx := signedTx(t)
	block := chain.Block{Header: chain.Genesis.Header, Content: chain.Content{Transactions: []chain.SignedTransaction{tx}}}
	got, err := Decode(Encode(NewBlocks([]chain.Block{block})))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Blocks) != 1 || got.Blocks[0].Hash() != block.Hash() {
		t.Fatalf("round-tripped block hash mismatch")
	}
}

func TestDecodeRejectsEmptyInput(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatal("Decode accepted empty input")
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	if _, err := Decode([]byte{0xFF}); err == nil {
		t.Fatal("Decode accepted an unknown message kind")
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	full := Encode(NewPing(7))
	if _, err := Decode(full[:len(full)-1]); err == nil {
		t.Fatal("Decode accepted truncated input")
	}
}
