package consensus

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// BtcBlock is an 80-byte Bitcoin block header. All integer fields are
// little-endian on the wire.
type BtcBlock struct {
	wire.BlockHeader
}

// HeaderBytes returns the 80-byte serialized header.
func (b *BtcBlock) HeaderBytes() []byte {
	var buf bytes.Buffer
	buf.Grow(BTC_HEADER_BYTES)
	// Writes to a bytes.Buffer cannot fail.
	_ = b.BlockHeader.Serialize(&buf)
	return buf.Bytes()
}

// Hash returns the double-sha256 of the header in internal byte order.
func (b *BtcBlock) Hash() Sha256Hash {
	return Sha256Hash(b.BlockHeader.BlockHash())
}

// PrevHash returns the previous block hash in internal byte order.
func (b *BtcBlock) PrevHash() Sha256Hash {
	return Sha256Hash(b.PrevBlock)
}

// MerkleRootHash returns the stored merkle root in internal byte order.
func (b *BtcBlock) MerkleRootHash() Sha256Hash {
	return Sha256Hash(b.MerkleRoot)
}

// ParseBtcBlockHeader decodes exactly 80 raw header bytes.
func ParseBtcBlockHeader(raw []byte) (*BtcBlock, error) {
	if len(raw) != BTC_HEADER_BYTES {
		return nil, codecErr(ERR_BAD_LENGTH, "btc header", "length %d, want %d", len(raw), BTC_HEADER_BYTES)
	}
	var b BtcBlock
	if err := b.BlockHeader.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, codecErr(ERR_SHORT_BUFFER, "btc header", "%v", err)
	}
	return &b, nil
}

// NewBtcBlock builds a header from explicit fields. timestamp is seconds
// since the epoch.
func NewBtcBlock(version int32, prev, merkleRoot Sha256Hash, timestamp, bits, nonce uint32) *BtcBlock {
	raw := make([]byte, 0, BTC_HEADER_BYTES)
	raw = appendU32le(raw, uint32(version))
	raw = append(raw, prev[:]...)
	raw = append(raw, merkleRoot[:]...)
	raw = appendU32le(raw, timestamp)
	raw = appendU32le(raw, bits)
	raw = appendU32le(raw, nonce)
	// The buffer is exactly 80 bytes by construction.
	b, _ := ParseBtcBlockHeader(raw)
	return b
}

// Timestamp32 returns the header timestamp as stored on the wire.
func (b *BtcBlock) Timestamp32() uint32 {
	// #nosec G115 -- decoded from a 32-bit field.
	return uint32(b.Timestamp.Unix())
}

func (b *BtcBlock) Equal(o *BtcBlock) bool {
	return bytes.Equal(b.HeaderBytes(), o.HeaderBytes())
}

// EncodeBtcBlock returns the stream form: a 1-byte length and the header.
func EncodeBtcBlock(b *BtcBlock) []byte {
	return appendBtcBlock(nil, b)
}

// DecodeBtcBlock decodes the stream form and rejects trailing bytes.
func DecodeBtcBlock(raw []byte) (*BtcBlock, error) {
	cur := newCursor(raw)
	b, err := readBtcBlock(cur, "btc block")
	if err != nil {
		return nil, err
	}
	if err := cur.done("btc block"); err != nil {
		return nil, err
	}
	return b, nil
}

func appendBtcBlock(dst []byte, b *BtcBlock) []byte {
	return appendSingleByteLenValue(dst, b.HeaderBytes())
}

func readBtcBlock(cur *cursor, field string) (*BtcBlock, error) {
	raw, err := cur.readFixedLenValue(field, BTC_HEADER_BYTES)
	if err != nil {
		return nil, err
	}
	return ParseBtcBlockHeader(raw)
}

// BtcHashFromString parses a hash in Bitcoin display order.
func BtcHashFromString(s string) (Sha256Hash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return Sha256Hash{}, codecErr(ERR_BAD_HEX, "btc hash", "%v", err)
	}
	return Sha256Hash(*h), nil
}
