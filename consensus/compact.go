package consensus

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
)

// MAX_VBK_TARGET is the target of a VeriBlock block of difficulty 1. A
// VeriBlock difficulty field encodes the divisor applied to it.
var MAX_VBK_TARGET = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 8*VBLAKE_HASH_BYTES), big.NewInt(1))

// DecodeCompact expands a compact encoding. Encodings with the sign bit set
// describe negative numbers and are rejected.
func DecodeCompact(bits uint32) (*big.Int, error) {
	n := blockchain.CompactToBig(bits)
	if n.Sign() < 0 {
		return nil, codecErr(ERR_BAD_COMPACT, "compact", "0x%08x encodes a negative value", bits)
	}
	return n, nil
}

// EncodeCompact returns the compact encoding of n. Precision beyond the
// three mantissa bytes is truncated.
func EncodeCompact(n *big.Int) uint32 {
	return blockchain.BigToCompact(n)
}

// BtcTarget returns the target a Bitcoin block hash must not exceed.
func BtcTarget(bits uint32) (*big.Int, error) {
	return DecodeCompact(bits)
}

// VbkTarget returns MAX_VBK_TARGET / decode(difficulty).
func VbkTarget(difficulty uint32) (*big.Int, error) {
	d, err := DecodeCompact(difficulty)
	if err != nil {
		return nil, err
	}
	if d.Sign() == 0 {
		return nil, codecErr(ERR_BAD_COMPACT, "difficulty", "0x%08x decodes to zero", difficulty)
	}
	return new(big.Int).Quo(MAX_VBK_TARGET, d), nil
}
