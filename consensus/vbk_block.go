package consensus

import (
	"bytes"
	"encoding/binary"
)

// VbkBlock is a 64-byte VeriBlock block header. All integer fields are
// big-endian on the wire.
type VbkBlock struct {
	Height             int32
	Version            int16
	PrevBlock          [VBK_PREV_BLOCK_BYTES]byte
	PrevKeystone       [VBK_KEYSTONE_BYTES]byte
	SecondPrevKeystone [VBK_KEYSTONE_BYTES]byte
	MerkleRoot         [VBK_MERKLE_ROOT_BYTES]byte
	Timestamp          uint32
	Difficulty         uint32
	Nonce              uint32
}

// HeaderBytes returns the 64-byte serialized header.
func (b *VbkBlock) HeaderBytes() []byte {
	out := make([]byte, 0, VBK_HEADER_BYTES)
	// #nosec G115 -- signed fields are written as their two's complement bits.
	out = appendU32be(out, uint32(b.Height))
	// #nosec G115
	out = appendU16be(out, uint16(b.Version))
	out = append(out, b.PrevBlock[:]...)
	out = append(out, b.PrevKeystone[:]...)
	out = append(out, b.SecondPrevKeystone[:]...)
	out = append(out, b.MerkleRoot[:]...)
	out = appendU32be(out, b.Timestamp)
	out = appendU32be(out, b.Difficulty)
	return appendU32be(out, b.Nonce)
}

// Hash returns the 24-byte VeriBlock hash of the header.
func (b *VbkBlock) Hash() VBlakeHash {
	return vblake(b.HeaderBytes())
}

// IsKeystone reports whether the block height is a multiple of interval.
func (b *VbkBlock) IsKeystone(interval int32) bool {
	if interval <= 0 {
		interval = DEFAULT_KEYSTONE_INTERVAL
	}
	return b.Height%interval == 0
}

func (b *VbkBlock) Equal(o *VbkBlock) bool {
	return *b == *o
}

// ParseVbkBlockHeader decodes exactly 64 raw header bytes.
func ParseVbkBlockHeader(raw []byte) (*VbkBlock, error) {
	if len(raw) != VBK_HEADER_BYTES {
		return nil, codecErr(ERR_BAD_LENGTH, "vbk header", "length %d, want %d", len(raw), VBK_HEADER_BYTES)
	}
	be := binary.BigEndian
	o := 0
	next := func(n int) []byte {
		f := raw[o : o+n]
		o += n
		return f
	}
	var b VbkBlock
	// #nosec G115 -- inverse of HeaderBytes.
	b.Height = int32(be.Uint32(next(4)))
	// #nosec G115 -- inverse of HeaderBytes.
	b.Version = int16(be.Uint16(next(2)))
	copy(b.PrevBlock[:], next(VBK_PREV_BLOCK_BYTES))
	copy(b.PrevKeystone[:], next(VBK_KEYSTONE_BYTES))
	copy(b.SecondPrevKeystone[:], next(VBK_KEYSTONE_BYTES))
	copy(b.MerkleRoot[:], next(VBK_MERKLE_ROOT_BYTES))
	b.Timestamp = be.Uint32(next(4))
	b.Difficulty = be.Uint32(next(4))
	b.Nonce = be.Uint32(next(4))
	return &b, nil
}

// EncodeVbkBlock returns the stream form: a 1-byte length and the header.
func EncodeVbkBlock(b *VbkBlock) []byte {
	return appendVbkBlock(nil, b)
}

// DecodeVbkBlock decodes the stream form and rejects trailing bytes.
func DecodeVbkBlock(raw []byte) (*VbkBlock, error) {
	cur := newCursor(raw)
	b, err := readVbkBlock(cur, "vbk block")
	if err != nil {
		return nil, err
	}
	if err := cur.done("vbk block"); err != nil {
		return nil, err
	}
	return b, nil
}

func appendVbkBlock(dst []byte, b *VbkBlock) []byte {
	return appendSingleByteLenValue(dst, b.HeaderBytes())
}

func readVbkBlock(cur *cursor, field string) (*VbkBlock, error) {
	raw, err := cur.readFixedLenValue(field, VBK_HEADER_BYTES)
	if err != nil {
		return nil, err
	}
	return ParseVbkBlockHeader(raw)
}

// vbkRootMatches reports whether root, truncated to the stored length,
// equals the block's merkle root.
func (b *VbkBlock) vbkRootMatches(root Sha256Hash) bool {
	return bytes.Equal(root.Trim(VBK_MERKLE_ROOT_BYTES), b.MerkleRoot[:])
}
