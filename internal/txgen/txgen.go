// Package txgen implements a background transaction generator: with
// no external wallet client available, it periodically signs a batch
// of payments from a single controlled ICO keypair to freshly
// generated addresses, admits them into the mempool, and gossips
// their hashes, so a demo node always has something to mine.
package txgen

import (
	"math/rand"
	"time"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/mempool"
	"empower1.com/empower1blockchain/internal/peer"
	"empower1.com/empower1blockchain/internal/wire"
)

// BatchSize is how many transactions a single generation tick emits.
const BatchSize = 10

// Logger is the minimal logging surface the generator needs.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Generator drives the periodic transaction-generation loop.
type Generator struct {
	Pool     *mempool.Mempool
	Peers    *peer.Set
	Log      Logger
	Interval time.Duration

	controlled crypto.KeyPair
	nonce      uint32
}

// New constructs a Generator that signs from controlled, starting its
// nonce at startNonce (the controlled account's nonce at genesis,
// since the demo node never observes another sender racing it).
func New(pool *mempool.Mempool, peers *peer.Set, log Logger, controlled crypto.KeyPair, startNonce uint32) *Generator {
	return &Generator{
		Pool:       pool,
		Peers:      peers,
		Log:        log,
		Interval:   3 * time.Second,
		controlled: controlled,
		nonce:      startNonce,
	}
}

// Run ticks every g.Interval, generating and gossiping one batch of
// transactions per tick, until stop is closed. Call it in its own
// goroutine.
func (g *Generator) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(g.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			g.Log.Infof("txgen: exiting")
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *Generator) tick() {
	from := crypto.AddressOf(g.controlled.Public)
	hashes := make([]crypto.H256, 0, BatchSize)

	for i := 0; i < BatchSize; i++ {
		g.nonce++
		to, err := crypto.RandomKeyPair()
		if err != nil {
			g.Log.Warnf("txgen: failed to generate recipient keypair: %v", err)
			continue
		}
		raw := chain.RawTransaction{
			FromAddr: from,
			ToAddr:   crypto.AddressOf(to.Public),
			Value:    uint64(1 + rand.Intn(999)),
			Nonce:    g.nonce,
		}
		sig := crypto.Sign(raw.Encode(), g.controlled.Private)
		tx := chain.SignedTransaction{Raw: raw, PubKey: g.controlled.Public, Signature: sig}

		g.Pool.Insert(tx)
		hashes = append(hashes, tx.Hash())
	}

	if len(hashes) == 0 {
		return
	}
	g.Log.Infof("txgen: generated %d transaction(s)", len(hashes))
	g.Peers.Broadcast(wire.NewTxHashes(hashes))
}
