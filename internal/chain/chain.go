// Package chain defines the block and transaction model: the
// canonical, deterministic binary encoding each is hashed from, and
// the genesis block constant.
package chain

import (
	"bytes"
	"encoding/binary"

	"empower1.com/empower1blockchain/internal/crypto"
)

// Difficulty is the protocol-wide, network-static proof-of-work
// target: a 32-byte big-endian integer with two leading zero bytes
// followed by thirty 0xFF bytes (0x0000FFFF...FF). It never changes
// during a run.
var Difficulty = func() crypto.H256 {
	var d crypto.H256
	for i := range d {
		d[i] = 0xFF
	}
	d[0] = 0x00
	d[1] = 0x00
	return d
}()

// Header is a block's fixed-shape header.
type Header struct {
	Parent      crypto.H256
	Nonce       uint32
	Difficulty  crypto.H256
	Timestamp   uint64 // milliseconds since Unix epoch; spec's u128 narrowed to a Go-native width, see DESIGN.md
	MerkleRoot  crypto.H256
}

// RawTransaction is the unsigned payload of a payment.
type RawTransaction struct {
	FromAddr crypto.H160
	ToAddr   crypto.H160
	Value    uint64
	Nonce    uint32
}

// SignedTransaction is a RawTransaction together with the signer's
// public key and signature over the raw transaction's encoding.
type SignedTransaction struct {
	Raw       RawTransaction
	PubKey    []byte
	Signature []byte
}

// Content is the ordered sequence of signed transactions a block
// carries.
type Content struct {
	Transactions []SignedTransaction
}

// Block is a header plus content.
type Block struct {
	Header  Header
	Content Content
}

// putUint64 writes v big-endian, matching the wire package's
// fixed-width integer convention so hashing and wire encoding agree bit-for-bit.
func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putBytes(buf *bytes.Buffer, b []byte) {
	putUint64(buf, uint64(len(b)))
	buf.Write(b)
}

// Encode returns the canonical encoding of a raw transaction. This
// is exactly the byte sequence that gets signed and verified.
func (r RawTransaction) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(r.FromAddr[:])
	buf.Write(r.ToAddr[:])
	putUint64(&buf, r.Value)
	putUint32(&buf, r.Nonce)
	return buf.Bytes()
}

// Encode returns the canonical encoding of the signed envelope (raw
// transaction, public key, signature). Its SHA-256 digest is the
// transaction hash.
func (s SignedTransaction) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(s.Raw.Encode())
	putBytes(&buf, s.PubKey)
	putBytes(&buf, s.Signature)
	return buf.Bytes()
}

// Hash returns the transaction hash: SHA-256 over the signed
// envelope's canonical encoding.
func (s SignedTransaction) Hash() crypto.H256 {
	return crypto.SHA256(s.Encode())
}

// Encode returns the header's canonical encoding.
func (h Header) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(h.Parent[:])
	putUint32(&buf, h.Nonce)
	buf.Write(h.Difficulty[:])
	putUint64(&buf, h.Timestamp)
	buf.Write(h.MerkleRoot[:])
	return buf.Bytes()
}

// Encode returns the whole block's canonical encoding: header then
// the ordered transaction envelopes.
func (b Block) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(b.Header.Encode())
	putUint64(&buf, uint64(len(b.Content.Transactions)))
	for _, tx := range b.Content.Transactions {
		putBytes(&buf, tx.Encode())
	}
	return buf.Bytes()
}

// Hash returns the block hash: SHA-256 over the full block encoding.
func (b Block) Hash() crypto.H256 {
	return crypto.SHA256(b.Encode())
}

// Genesis is the constant genesis block: zero parent, zero nonce,
// zero timestamp, zero merkle root, and the protocol difficulty. It
// is accepted by fiat — its own PoW predicate is never checked.
var Genesis = Block{
	Header: Header{
		Parent:     crypto.H256{},
		Nonce:      0,
		Difficulty: Difficulty,
		Timestamp:  0,
		MerkleRoot: crypto.H256{},
	},
	Content: Content{Transactions: nil},
}

// GenesisHash is the fixed hash of the genesis block.
var GenesisHash = Genesis.Hash()

// ICOAccountCount is the number of deterministic accounts seeded by
// genesis state.
const ICOAccountCount = 10

// ICOBalance returns the genesis balance of ICO account i (0-based):
// 1000 * (10 - i).
func ICOBalance(i int) uint64 {
	return uint64(1000 * (ICOAccountCount - i))
}
