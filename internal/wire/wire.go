// Package wire implements the peer protocol's tagged-union Message
// type and its binary encoding: big-endian fixed-width integers
// (independent of the host's byte order), 8-byte
// length-prefixed byte strings, and 8-byte length-prefixed vectors.
// The same encoding convention underlies chain.Block/chain.Header
// hashing, so it must stay bit-stable.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/crypto"
)

// Kind tags which Message variant is encoded.
type Kind uint8

const (
	KindPing Kind = iota
	KindPong
	KindNewBlockHashes
	KindGetBlocks
	KindBlocks
	KindNewTransactionHashes
	KindGetTransactions
	KindTransactions
)

// Message is the tagged union of everything a peer can send.
// Exactly one of the fields matching Kind is meaningful.
type Message struct {
	Kind Kind

	Ping uint32
	Pong string

	Hashes []crypto.H256 // NewBlockHashes / GetBlocks / NewTransactionHashes / GetTransactions

	Blocks []chain.Block

	Transactions []chain.SignedTransaction
}

func NewPing(nonce uint32) Message            { return Message{Kind: KindPing, Ping: nonce} }
func NewPong(s string) Message                { return Message{Kind: KindPong, Pong: s} }
func NewBlockHashes(h []crypto.H256) Message  { return Message{Kind: KindNewBlockHashes, Hashes: h} }
func NewGetBlocks(h []crypto.H256) Message    { return Message{Kind: KindGetBlocks, Hashes: h} }
func NewBlocks(b []chain.Block) Message       { return Message{Kind: KindBlocks, Blocks: b} }
func NewTxHashes(h []crypto.H256) Message     { return Message{Kind: KindNewTransactionHashes, Hashes: h} }
func NewGetTransactions(h []crypto.H256) Message {
	return Message{Kind: KindGetTransactions, Hashes: h}
}
func NewTransactions(t []chain.SignedTransaction) Message {
	return Message{Kind: KindTransactions, Transactions: t}
}

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

func putHashes(buf *bytes.Buffer, hs []crypto.H256) {
	putUint64(buf, uint64(len(hs)))
	for _, h := range hs {
		buf.Write(h[:])
	}
}

// Encode serializes m with the protocol's fixed binary encoding.
func Encode(m Message) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(m.Kind))

	switch m.Kind {
	case KindPing:
		putUint32(&buf, m.Ping)
	case KindPong:
		putBytes(&buf, []byte(m.Pong))
	case KindNewBlockHashes, KindGetBlocks, KindNewTransactionHashes, KindGetTransactions:
		putHashes(&buf, m.Hashes)
	case KindBlocks:
		putUint64(&buf, uint64(len(m.Blocks)))
		for _, b := range m.Blocks {
			putBytes(&buf, b.Encode())
		}
	case KindTransactions:
		putUint64(&buf, uint64(len(m.Transactions)))
		for _, tx := range m.Transactions {
			putBytes(&buf, tx.Encode())
		}
	}
	return buf.Bytes()
}

type decoder struct {
	r *bytes.Reader
}

func (d *decoder) u32() (uint32, error) {
	var b [4]byte
	if _, err := ioReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (d *decoder) u64() (uint64, error) {
	var b [8]byte
	if _, err := ioReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.u64()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := ioReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func ioReadFull(r *bytes.Reader, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := r.Read(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (d *decoder) h256() (crypto.H256, error) {
	var h crypto.H256
	if _, err := ioReadFull(d.r, h[:]); err != nil {
		return h, err
	}
	return h, nil
}

func (d *decoder) hashes() ([]crypto.H256, error) {
	n, err := d.u64()
	if err != nil {
		return nil, err
	}
	out := make([]crypto.H256, n)
	for i := range out {
		h, err := d.h256()
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func decodeRawTx(b []byte) (chain.RawTransaction, error) {
	if len(b) != crypto.H160Size*2+8+4 {
		return chain.RawTransaction{}, fmt.Errorf("wire: malformed raw transaction encoding (%d bytes)", len(b))
	}
	var raw chain.RawTransaction
	copy(raw.FromAddr[:], b[0:20])
	copy(raw.ToAddr[:], b[20:40])
	raw.Value = binary.BigEndian.Uint64(b[40:48])
	raw.Nonce = binary.BigEndian.Uint32(b[48:52])
	return raw, nil
}

func decodeSignedTx(b []byte) (chain.SignedTransaction, error) {
	r := bytes.NewReader(b)
	d := &decoder{r: r}

	rawBytes := make([]byte, crypto.H160Size*2+8+4)
	if _, err := ioReadFull(r, rawBytes); err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("wire: decode signed transaction: %w", err)
	}
	raw, err := decodeRawTx(rawBytes)
	if err != nil {
		return chain.SignedTransaction{}, err
	}
	pubKey, err := d.bytes()
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("wire: decode signed transaction pubkey: %w", err)
	}
	sig, err := d.bytes()
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("wire: decode signed transaction signature: %w", err)
	}
	return chain.SignedTransaction{Raw: raw, PubKey: pubKey, Signature: sig}, nil
}

func decodeHeader(d *decoder) (chain.Header, error) {
	var h chain.Header
	parent, err := d.h256()
	if err != nil {
		return h, err
	}
	nonce, err := d.u32()
	if err != nil {
		return h, err
	}
	difficulty, err := d.h256()
	if err != nil {
		return h, err
	}
	timestamp, err := d.u64()
	if err != nil {
		return h, err
	}
	merkleRoot, err := d.h256()
	if err != nil {
		return h, err
	}
	return chain.Header{
		Parent:     parent,
		Nonce:      nonce,
		Difficulty: difficulty,
		Timestamp:  timestamp,
		MerkleRoot: merkleRoot,
	}, nil
}

func decodeBlock(b []byte) (chain.Block, error) {
	r := bytes.NewReader(b)
	d := &decoder{r: r}
	header, err := decodeHeader(d)
	if err != nil {
		return chain.Block{}, fmt.Errorf("wire: decode block header: %w", err)
	}
	n, err := d.u64()
	if err != nil {
		return chain.Block{}, fmt.Errorf("wire: decode block tx count: %w", err)
	}
	txs := make([]chain.SignedTransaction, n)
	for i := range txs {
		txBytes, err := d.bytes()
		if err != nil {
			return chain.Block{}, fmt.Errorf("wire: decode block tx %d: %w", i, err)
		}
		tx, err := decodeSignedTx(txBytes)
		if err != nil {
			return chain.Block{}, err
		}
		txs[i] = tx
	}
	return chain.Block{Header: header, Content: chain.Content{Transactions: txs}}, nil
}

// Decode deserializes a Message from its wire encoding. Malformed
// input returns an error; the caller's policy (per the error
// handling design) is to drop the message rather than propagate the
// failure to the peer.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, fmt.Errorf("wire: empty message")
	}
	kind := Kind(data[0])
	d := &decoder{r: bytes.NewReader(data[1:])}

	switch kind {
	case KindPing:
		n, err := d.u32()
		if err != nil {
			return Message{}, fmt.Errorf("wire: decode Ping: %w", err)
		}
		return Message{Kind: kind, Ping: n}, nil
	case KindPong:
		s, err := d.bytes()
		if err != nil {
			return Message{}, fmt.Errorf("wire: decode Pong: %w", err)
		}
		return Message{Kind: kind, Pong: string(s)}, nil
	case KindNewBlockHashes, KindGetBlocks, KindNewTransactionHashes, KindGetTransactions:
		hs, err := d.hashes()
		if err != nil {
			return Message{}, fmt.Errorf("wire: decode hash list: %w", err)
		}
		return Message{Kind: kind, Hashes: hs}, nil
	case KindBlocks:
		n, err := d.u64()
		if err != nil {
			return Message{}, fmt.Errorf("wire: decode Blocks count: %w", err)
		}
		blocks := make([]chain.Block, n)
		for i := range blocks {
			bb, err := d.bytes()
			if err != nil {
				return Message{}, fmt.Errorf("wire: decode Blocks[%d]: %w", i, err)
			}
			block, err := decodeBlock(bb)
			if err != nil {
				return Message{}, err
			}
			blocks[i] = block
		}
		return Message{Kind: kind, Blocks: blocks}, nil
	case KindTransactions:
		n, err := d.u64()
		if err != nil {
			return Message{}, fmt.Errorf("wire: decode Transactions count: %w", err)
		}
		txs := make([]chain.SignedTransaction, n)
		for i := range txs {
			tb, err := d.bytes()
			if err != nil {
				return Message{}, fmt.Errorf("wire: decode Transactions[%d]: %w", i, err)
			}
			tx, err := decodeSignedTx(tb)
			if err != nil {
				return Message{}, err
			}
			txs[i] = tx
		}
		return Message{Kind: kind, Transactions: txs}, nil
	default:
		return Message{}, fmt.Errorf("wire: unknown message kind %d", kind)
	}
}
