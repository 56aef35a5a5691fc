// Package mempool holds admitted, not-yet-mined signed transactions
// and evaluates their validity against a given account state. The
// mempool stores no ordering of its own; callers decide which
// transactions to include in a block.
package mempool

import (
	"sync"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/state"
)

// Mempool is keyed by transaction hash. All methods are safe for
// concurrent use.
type Mempool struct {
	mu  sync.RWMutex
	txs map[crypto.H256]chain.SignedTransaction
}

// New constructs an empty mempool.
func New() *Mempool {
	return &Mempool{txs: make(map[crypto.H256]chain.SignedTransaction)}
}

// Insert admits tx, keyed on its hash. Idempotent: inserting an
// already-present transaction is a no-op.
func (m *Mempool) Insert(tx chain.SignedTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := tx.Hash()
	if _, exists := m.txs[h]; exists {
		return
	}
	m.txs[h] = tx
}

// Contains reports whether hash is currently in the mempool.
func (m *Mempool) Contains(hash crypto.H256) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.txs[hash]
	return ok
}

// Get returns the transaction for hash, if present.
func (m *Mempool) Get(hash crypto.H256) (chain.SignedTransaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.txs[hash]
	return tx, ok
}

// GetMany returns every held transaction among hashes, silently
// skipping any not present.
func (m *Mempool) GetMany(hashes []crypto.H256) []chain.SignedTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chain.SignedTransaction, 0, len(hashes))
	for _, h := range hashes {
		if tx, ok := m.txs[h]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// RemoveMany evicts every hash in hashes, ignoring ones not present.
func (m *Mempool) RemoveMany(hashes []crypto.H256) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hashes {
		delete(m.txs, h)
	}
}

// TakeUpTo returns up to n held transactions in unspecified order.
func (m *Mempool) TakeUpTo(n int) []chain.SignedTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.txs) {
		n = len(m.txs)
	}
	out := make([]chain.SignedTransaction, 0, n)
	for _, tx := range m.txs {
		if len(out) >= n {
			break
		}
		out = append(out, tx)
	}
	return out
}

// Len reports how many transactions are currently held.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

// IsValid reports whether tx would be accepted against s: see
// state.IsValid for the exact signature/address/nonce/balance checks.
func (m *Mempool) IsValid(s state.State, tx chain.SignedTransaction) bool {
	return state.IsValid(s, tx)
}

// ValidSubset returns every held transaction that validates against s.
func (m *Mempool) ValidSubset(s state.State) []chain.SignedTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chain.SignedTransaction, 0, len(m.txs))
	for _, tx := range m.txs {
		if state.IsValid(s, tx) {
			out = append(out, tx)
		}
	}
	return out
}

// InvalidSubset returns every held transaction that does not validate
// against s.
func (m *Mempool) InvalidSubset(s state.State) []chain.SignedTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chain.SignedTransaction, 0, len(m.txs))
	for _, tx := range m.txs {
		if !state.IsValid(s, tx) {
			out = append(out, tx)
		}
	}
	return out
}
