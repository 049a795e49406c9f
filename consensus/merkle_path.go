package consensus

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// MerklePath proves that Subject is a leaf of a Bitcoin merkle tree. The
// root is always recomputed, never carried.
type MerklePath struct {
	Index   uint32
	Subject Sha256Hash
	Layers  []Sha256Hash
}

// Root recomputes the Bitcoin merkle root.
func (p *MerklePath) Root() Sha256Hash {
	return MerkleRoot(p.Index, p.Subject, p.Layers, BtcJoin())
}

// String returns index:subject:layer...; hashes are hex in raw byte order.
func (p *MerklePath) String() string {
	return formatPathText(nil, p.Index, p.Subject, p.Layers)
}

// VbkMerklePath proves that Subject is a transaction of a VeriBlock block.
// TreeIndex selects the PoP (0) or normal (1) sub-tree.
type VbkMerklePath struct {
	TreeIndex uint32
	Index     uint32
	Subject   Sha256Hash
	Layers    []Sha256Hash
}

// Root recomputes the full 32-byte VeriBlock root. Blocks store a
// truncated copy.
func (p *VbkMerklePath) Root() Sha256Hash {
	return MerkleRoot(p.Index, p.Subject, p.Layers, VbkTreeJoin(p.TreeIndex))
}

// String returns treeIndex:index:subject:layer....
func (p *VbkMerklePath) String() string {
	ti := p.TreeIndex
	return formatPathText(&ti, p.Index, p.Subject, p.Layers)
}

func formatPathText(treeIndex *uint32, index uint32, subject Sha256Hash, layers []Sha256Hash) string {
	parts := make([]string, 0, len(layers)+3)
	if treeIndex != nil {
		parts = append(parts, strconv.FormatUint(uint64(*treeIndex), 10))
	}
	parts = append(parts, strconv.FormatUint(uint64(index), 10), subject.String())
	for _, l := range layers {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, ":")
}

// ParseMerklePath inverts MerklePath.String.
func ParseMerklePath(s string) (*MerklePath, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return nil, codecErr(ERR_BAD_LENGTH, "merkle path", "want index:subject[:layers], got %d fields", len(parts))
	}
	index, subject, layers, err := parsePathFields(parts)
	if err != nil {
		return nil, err
	}
	return &MerklePath{Index: index, Subject: subject, Layers: layers}, nil
}

// ParseVbkMerklePath inverts VbkMerklePath.String.
func ParseVbkMerklePath(s string) (*VbkMerklePath, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return nil, codecErr(ERR_BAD_LENGTH, "vbk merkle path", "want treeIndex:index:subject[:layers], got %d fields", len(parts))
	}
	treeIndex, err := parseTreeIndex(parts[0])
	if err != nil {
		return nil, err
	}
	index, subject, layers, err := parsePathFields(parts[1:])
	if err != nil {
		return nil, err
	}
	return &VbkMerklePath{TreeIndex: treeIndex, Index: index, Subject: subject, Layers: layers}, nil
}

func parseTreeIndex(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, codecErr(ERR_BAD_HEX, "tree index", "%q: %v", s, err)
	}
	if v > 1 {
		return 0, codecErr(ERR_OUT_OF_RANGE, "tree index", "tree index %d not in {0, 1}", v)
	}
	return uint32(v), nil
}

func parsePathFields(parts []string) (uint32, Sha256Hash, []Sha256Hash, error) {
	index, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, Sha256Hash{}, nil, codecErr(ERR_BAD_HEX, "merkle index", "%q: %v", parts[0], err)
	}
	subject, err := parseHashHex("merkle subject", parts[1])
	if err != nil {
		return 0, Sha256Hash{}, nil, err
	}
	rest := parts[2:]
	if len(rest) > MAX_MERKLE_LAYERS {
		return 0, Sha256Hash{}, nil, codecErr(ERR_CAP_EXCEEDED, "merkle layers", "%d layers exceed %d", len(rest), MAX_MERKLE_LAYERS)
	}
	var layers []Sha256Hash
	for _, p := range rest {
		h, err := parseHashHex("merkle layer", p)
		if err != nil {
			return 0, Sha256Hash{}, nil, err
		}
		layers = append(layers, h)
	}
	return uint32(index), subject, layers, nil
}

func parseHashHex(field, s string) (Sha256Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Sha256Hash{}, codecErr(ERR_BAD_HEX, field, "%q: %v", s, err)
	}
	h, err := NewSha256Hash(b)
	if err != nil {
		return Sha256Hash{}, codecErr(ERR_BAD_LENGTH, field, "%d bytes, want %d", len(b), SHA256_HASH_BYTES)
	}
	return h, nil
}

// EncodeMerklePath returns the var-length wrapped stream form.
func EncodeMerklePath(p *MerklePath) []byte {
	return appendMerklePath(nil, p)
}

// DecodeMerklePath decodes the stream form and rejects trailing bytes.
func DecodeMerklePath(raw []byte) (*MerklePath, error) {
	cur := newCursor(raw)
	p, err := readMerklePath(cur, "merkle path")
	if err != nil {
		return nil, err
	}
	if err := cur.done("merkle path"); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeVbkMerklePath returns the var-length wrapped stream form.
func EncodeVbkMerklePath(p *VbkMerklePath) []byte {
	return appendVbkMerklePath(nil, p)
}

// DecodeVbkMerklePath decodes the stream form and rejects trailing bytes.
func DecodeVbkMerklePath(raw []byte) (*VbkMerklePath, error) {
	cur := newCursor(raw)
	p, err := readVbkMerklePath(cur, "vbk merkle path")
	if err != nil {
		return nil, err
	}
	if err := cur.done("vbk merkle path"); err != nil {
		return nil, err
	}
	return p, nil
}

func appendPathBody(dst []byte, index uint32, subject Sha256Hash, layers []Sha256Hash) []byte {
	dst = appendTrimmedInt64(dst, int64(index))
	dst = appendSingleByteLenValue(dst, subject[:])
	dst = appendCount(dst, len(layers))
	for _, l := range layers {
		dst = appendSingleByteLenValue(dst, l[:])
	}
	return dst
}

func appendMerklePath(dst []byte, p *MerklePath) []byte {
	return appendVarLenValue(dst, appendPathBody(nil, p.Index, p.Subject, p.Layers))
}

func appendVbkMerklePath(dst []byte, p *VbkMerklePath) []byte {
	body := appendTrimmedInt64(nil, int64(p.TreeIndex))
	body = appendPathBody(body, p.Index, p.Subject, p.Layers)
	return appendVarLenValue(dst, body)
}

func readPathBody(cur *cursor) (uint32, Sha256Hash, []Sha256Hash, error) {
	index, err := cur.readUint32("merkle index")
	if err != nil {
		return 0, Sha256Hash{}, nil, err
	}
	raw, err := cur.readFixedLenValue("merkle subject", SHA256_HASH_BYTES)
	if err != nil {
		return 0, Sha256Hash{}, nil, err
	}
	subject := Sha256Hash(raw)
	n, err := cur.readCount("merkle layers", MAX_MERKLE_LAYERS)
	if err != nil {
		return 0, Sha256Hash{}, nil, err
	}
	var layers []Sha256Hash
	if n > 0 {
		layers = make([]Sha256Hash, 0, n)
	}
	for i := 0; i < n; i++ {
		raw, err := cur.readFixedLenValue("merkle layer", SHA256_HASH_BYTES)
		if err != nil {
			return 0, Sha256Hash{}, nil, err
		}
		layers = append(layers, Sha256Hash(raw))
	}
	return index, subject, layers, nil
}

func readMerklePath(cur *cursor, field string) (*MerklePath, error) {
	body, err := cur.readVarLenValue(field, MAX_MERKLE_PATH_BYTES)
	if err != nil {
		return nil, err
	}
	inner := newCursor(body)
	index, subject, layers, err := readPathBody(inner)
	if err != nil {
		return nil, err
	}
	if err := inner.done(field); err != nil {
		return nil, err
	}
	return &MerklePath{Index: index, Subject: subject, Layers: layers}, nil
}

func readVbkMerklePath(cur *cursor, field string) (*VbkMerklePath, error) {
	body, err := cur.readVarLenValue(field, MAX_MERKLE_PATH_BYTES)
	if err != nil {
		return nil, err
	}
	inner := newCursor(body)
	treeIndex, err := inner.readUint32("tree index")
	if err != nil {
		return nil, err
	}
	if treeIndex > 1 {
		return nil, codecErr(ERR_OUT_OF_RANGE, "tree index", "tree index %d not in {0, 1}", treeIndex)
	}
	index, subject, layers, err := readPathBody(inner)
	if err != nil {
		return nil, err
	}
	if err := inner.done(field); err != nil {
		return nil, err
	}
	return &VbkMerklePath{TreeIndex: treeIndex, Index: index, Subject: subject, Layers: layers}, nil
}
