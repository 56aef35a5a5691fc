// Package state implements the per-block account state and the
// deterministic state transition function that applies a block's
// transactions to it.
package state

import (
	"fmt"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
)

// Account is an account's nonce and balance.
type Account struct {
	Nonce   uint32
	Balance uint64
}

// State maps addresses to accounts. A missing entry reads as the
// zero Account (nonce 0, balance 0). State is copy-on-write: Apply
// never mutates its receiver, it returns a new State.
type State map[crypto.H160]Account

// Get returns the account at addr, defaulting to (0, 0).
func (s State) Get(addr crypto.H160) Account {
	return s[addr]
}

// Clone returns a shallow copy of s, safe to mutate independently.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// TotalSupply sums every account's balance, used by the total-supply
// conservation property (P4).
func (s State) TotalSupply() uint64 {
	var total uint64
	for _, acct := range s {
		total += acct.Balance
	}
	return total
}

// Genesis builds the initial coin offering state: ten deterministic
// addresses A_0..A_9, where A_i has balance 1000*(10-i) and nonce 0.
func Genesis() State {
	s := make(State, chain.ICOAccountCount)
	for i := 0; i < chain.ICOAccountCount; i++ {
		kp := crypto.DeterministicKeyPair(i)
		addr := crypto.AddressOf(kp.Public)
		s[addr] = Account{Nonce: 0, Balance: chain.ICOBalance(i)}
	}
	return s
}

// Apply executes an ordered sequence of signed transactions against
// in, producing the resulting state. It implements the nonce
// soft-reject rule (§4.4): a transaction whose nonce does not match
// the sender's current nonce+1 is silently skipped rather than
// aborting the whole block, since the block producer may have
// included a stale transaction.
//
// Apply panics on the two conditions the spec calls fatal invariant
// violations: a transaction whose declared sender does not match the
// address derived from its public key, or a transaction that reaches
// step 4 with insufficient balance. Both are upstream validation bugs
// — a block containing either should never have reached Apply.
func Apply(in State, txs []chain.SignedTransaction) State {
	out := in.Clone()
	for _, tx := range txs {
		sender := crypto.AddressOf(tx.PubKey)
		if sender != tx.Raw.FromAddr {
			panic(fmt.Sprintf("state: transaction sender %x does not match from_addr %x; block should have been rejected upstream", sender, tx.Raw.FromAddr))
		}

		senderAcct := out.Get(sender)
		if senderAcct.Nonce+1 != tx.Raw.Nonce {
			continue // soft-reject: stale nonce, no-op
		}
		if senderAcct.Balance < tx.Raw.Value {
			panic(fmt.Sprintf("state: transaction from %x has insufficient balance; should have been balance-checked at admission", sender))
		}

		out[sender] = Account{Nonce: senderAcct.Nonce + 1, Balance: senderAcct.Balance - tx.Raw.Value}

		receiver := out.Get(tx.Raw.ToAddr)
		out[tx.Raw.ToAddr] = Account{Nonce: receiver.Nonce, Balance: receiver.Balance + tx.Raw.Value}
	}
	return out
}

// IsValid reports whether tx would be accepted against state: its
// signature verifies, its declared sender matches its public key,
// its nonce is exactly one more than the sender's current nonce, and
// the sender can afford it.
func IsValid(s State, tx chain.SignedTransaction) bool {
	if !crypto.Verify(tx.Raw.Encode(), tx.PubKey, tx.Signature) {
		return false
	}
	sender := crypto.AddressOf(tx.PubKey)
	if sender != tx.Raw.FromAddr {
		return false
	}
	acct := s.Get(sender)
	if acct.Nonce+1 != tx.Raw.Nonce {
		return false
	}
	if acct.Balance < tx.Raw.Value {
		return false
	}
	return true
}
