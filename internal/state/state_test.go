package state

import (
	"testing"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
)

// scenario 5: ICO
func TestGenesisICO(t *testing.T) {
	s := Genesis()
	for i := 0; i < chain.ICOAccountCount; i++ {
		kp := crypto.DeterministicKeyPair(i)
		addr := crypto.AddressOf(kp.Public)
		acct := s.Get(addr)
		want := chain.ICOBalance(i)
		if acct.Balance != want {
			t.Fatalf("account %d: balance = %d, want %d", i, acct.Balance, want)
		}
		if acct.Nonce != 0 {
			t.Fatalf("account %d: nonce = %d, want 0", i, acct.Nonce)
		}
	}
}

func signedTx(t *testing.T, kp crypto.KeyPair, to crypto.H160, value uint64, nonce uint32) chain.SignedTransaction {
	t.Helper()
	raw := chain.RawTransaction{
		FromAddr: crypto.AddressOf(kp.Public),
		ToAddr:   to,
		Value:    value,
		Nonce:    nonce,
	}
	sig := crypto.Sign(raw.Encode(), kp.Private)
	return chain.SignedTransaction{Raw: raw, PubKey: kp.Public, Signature: sig}
}

// scenario 6: transaction execution
func TestApplyTransactionExecution(t *testing.T) {
	s := Genesis()
	a0 := crypto.DeterministicKeyPair(0)
	fresh, err := crypto.RandomKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	freshAddr := crypto.AddressOf(fresh.Public)

	tx := signedTx(t, a0, freshAddr, 500, 1)
	out := Apply(s, []chain.SignedTransaction{tx})

	a0Addr := crypto.AddressOf(a0.Public)
	a0Acct := out.Get(a0Addr)
	if a0Acct.Balance != 9500 {
		t.Fatalf("A_0 balance = %d, want 9500", a0Acct.Balance)
	}
	if a0Acct.Nonce != 1 {
		t.Fatalf("A_0 nonce = %d, want 1", a0Acct.Nonce)
	}
	recv := out.Get(freshAddr)
	if recv.Balance != 500 {
		t.Fatalf("recipient balance = %d, want 500", recv.Balance)
	}
}

// nonce soft-reject rule (§4.4): a stale-nonce transaction is a no-op,
// not a block-aborting error.
func TestApplySoftRejectsStaleNonce(t *testing.T) {
	s := Genesis()
	a0 := crypto.DeterministicKeyPair(0)
	fresh, _ := crypto.RandomKeyPair()
	freshAddr := crypto.AddressOf(fresh.Public)

	stale := signedTx(t, a0, freshAddr, 500, 5) // correct next nonce is 1, not 5
	out := Apply(s, []chain.SignedTransaction{stale})

	a0Addr := crypto.AddressOf(a0.Public)
	if out.Get(a0Addr).Balance != s.Get(a0Addr).Balance {
		t.Fatalf("stale-nonce transaction should not mutate sender balance")
	}
	if out.Get(freshAddr).Balance != 0 {
		t.Fatalf("stale-nonce transaction should not mutate receiver balance")
	}
}

// P4: total supply is conserved by Apply.
func TestApplyConservesTotalSupply(t *testing.T) {
	s := Genesis()
	before := s.TotalSupply()
	a0 := crypto.DeterministicKeyPair(0)
	fresh, _ := crypto.RandomKeyPair()
	tx := signedTx(t, a0, crypto.AddressOf(fresh.Public), 250, 1)
	out := Apply(s, []chain.SignedTransaction{tx})
	if out.TotalSupply() != before {
		t.Fatalf("total supply changed: before=%d after=%d", before, out.TotalSupply())
	}
}

func TestIsValidRejectsBadSignature(t *testing.T) {
	s := Genesis()
	a0 := crypto.DeterministicKeyPair(0)
	fresh, _ := crypto.RandomKeyPair()
	tx := signedTx(t, a0, crypto.AddressOf(fresh.Public), 100, 1)
	tx.Signature[0] ^= 0xFF
	if IsValid(s, tx) {
		t.Fatal("tampered signature should not validate")
	}
}
