// Package crypto wraps the cryptographic primitives the rest of the
// node treats as black boxes: SHA-256 digests, Ed25519 key pairs, and
// the 160-bit address derivation used to name accounts.
package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// H256Size is the width in bytes of a block or transaction hash.
const H256Size = 32

// H160Size is the width in bytes of an account address.
const H160Size = 20

// H256 is a 32-byte digest, ordered as a big-endian 256-bit unsigned
// integer for proof-of-work comparisons.
type H256 [H256Size]byte

// H160 is a 20-byte account address: the low 20 bytes of the SHA-256
// digest of an Ed25519 public key.
type H160 [H160Size]byte

// Int returns h as a big-endian unsigned integer, for PoW comparisons
// against a difficulty target.
func (h H256) Int() *big.Int {
	return new(big.Int).SetBytes(h[:])
}

// Cmp orders two digests as big-endian 256-bit unsigned integers.
func (h H256) Cmp(other H256) int {
	for i := 0; i < H256Size; i++ {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// LessOrEqual reports whether h <= other under big-endian ordering.
// This is the proof-of-work predicate: block.Hash() <= difficulty.
func (h H256) LessOrEqual(other H256) bool {
	return h.Cmp(other) <= 0
}

func (h H256) String() string {
	return fmt.Sprintf("%x", h[:])
}

// IsZero reports whether h is the all-zero digest (the genesis
// block's parent field).
func (h H256) IsZero() bool {
	return h == H256{}
}

func (a H160) String() string {
	return fmt.Sprintf("%x", a[:])
}

// SHA256 hashes data and returns it as an H256.
func SHA256(data []byte) H256 {
	return H256(sha256.Sum256(data))
}

// KeyPair is an Ed25519 signing key pair.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// RandomKeyPair generates a fresh random Ed25519 key pair.
func RandomKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return KeyPair{}, fmt.Errorf("crypto: generate random key pair: %w", err)
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// DeterministicKeyPair derives the i-th key pair of the protocol's
// fixed ICO accounts. The seed is the SHA-256 digest of a fixed label
// concatenated with the index, so the same index always yields the
// same key pair across nodes and runs.
func DeterministicKeyPair(i int) KeyPair {
	seed := sha256.Sum256([]byte(fmt.Sprintf("empower1-ico-account-%d", i)))
	priv := ed25519.NewKeyFromSeed(seed[:])
	return KeyPair{Public: priv.Public().(ed25519.PublicKey), Private: priv}
}

// Sign signs data with the private key.
func Sign(data []byte, priv ed25519.PrivateKey) []byte {
	return ed25519.Sign(priv, data)
}

// Verify reports whether sig is a valid Ed25519 signature of data
// under pubKey. A malformed public key or signature is treated as a
// verification failure, not an error.
func Verify(data []byte, pubKey []byte, sig []byte) bool {
	if len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), data, sig)
}

// AddressOf derives the 160-bit account address of an Ed25519 public
// key: the low 20 bytes of SHA-256(pubKey).
func AddressOf(pubKey []byte) H160 {
	digest := sha256.Sum256(pubKey)
	var addr H160
	copy(addr[:], digest[H256Size-H160Size:])
	return addr
}
