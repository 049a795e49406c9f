package consensus

import (
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Sha256Hash is a 32-byte digest. Ordering treats the bytes as a
// little-endian number.
type Sha256Hash [SHA256_HASH_BYTES]byte

// NewSha256Hash copies b into a Sha256Hash. b must be exactly 32 bytes.
func NewSha256Hash(b []byte) (Sha256Hash, error) {
	var h Sha256Hash
	if len(b) != SHA256_HASH_BYTES {
		return h, codecErr(ERR_BAD_LENGTH, "sha256 hash", "length %d, want %d", len(b), SHA256_HASH_BYTES)
	}
	copy(h[:], b)
	return h, nil
}

// Cmp compares h and o as little-endian numbers.
func (h Sha256Hash) Cmp(o Sha256Hash) int {
	for i := SHA256_HASH_BYTES - 1; i >= 0; i-- {
		switch {
		case h[i] < o[i]:
			return -1
		case h[i] > o[i]:
			return 1
		}
	}
	return 0
}

// Trim returns a copy of the first n bytes.
func (h Sha256Hash) Trim(n int) []byte {
	if n > SHA256_HASH_BYTES {
		n = SHA256_HASH_BYTES
	}
	return append([]byte(nil), h[:n]...)
}

func (h Sha256Hash) String() string {
	return hex.EncodeToString(h[:])
}

// VBlakeHash is the 24-byte VeriBlock block hash.
type VBlakeHash [VBLAKE_HASH_BYTES]byte

// NewVBlakeHash copies b into a VBlakeHash. b must be exactly 24 bytes.
func NewVBlakeHash(b []byte) (VBlakeHash, error) {
	var h VBlakeHash
	if len(b) != VBLAKE_HASH_BYTES {
		return h, codecErr(ERR_BAD_LENGTH, "vblake hash", "length %d, want %d", len(b), VBLAKE_HASH_BYTES)
	}
	copy(h[:], b)
	return h, nil
}

// TrimPrevBlock returns the trailing bytes stored as a previous-block reference.
func (h VBlakeHash) TrimPrevBlock() [VBK_PREV_BLOCK_BYTES]byte {
	var out [VBK_PREV_BLOCK_BYTES]byte
	copy(out[:], h[VBLAKE_HASH_BYTES-VBK_PREV_BLOCK_BYTES:])
	return out
}

// TrimKeystone returns the trailing bytes stored as a keystone reference.
func (h VBlakeHash) TrimKeystone() [VBK_KEYSTONE_BYTES]byte {
	var out [VBK_KEYSTONE_BYTES]byte
	copy(out[:], h[VBLAKE_HASH_BYTES-VBK_KEYSTONE_BYTES:])
	return out
}

// Big interprets the hash as a big-endian unsigned integer.
func (h VBlakeHash) Big() *big.Int {
	return new(big.Int).SetBytes(h[:])
}

func (h VBlakeHash) String() string {
	return hex.EncodeToString(h[:])
}

func sha256Single(b []byte) Sha256Hash {
	return Sha256Hash(chainhash.HashH(b))
}

func sha256Double(b []byte) Sha256Hash {
	return Sha256Hash(chainhash.DoubleHashH(b))
}

// BtcString renders h in Bitcoin display order (byte-reversed).
func (h Sha256Hash) BtcString() string {
	return chainhash.Hash(h).String()
}
