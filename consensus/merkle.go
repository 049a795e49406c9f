package consensus

// JoinKind selects the hash and side rule used to fold a merkle path.
type JoinKind uint8

const (
	// JOIN_BTC double-hashes and picks sides by index parity.
	JOIN_BTC JoinKind = iota
	// JOIN_VBK single-hashes and picks sides by index parity.
	JOIN_VBK
	// JOIN_VBK_TREE is JOIN_VBK with the two top layers special-cased: the
	// second-to-last layer takes its side from TreeIndex and the last layer
	// always puts the accumulator on the right.
	JOIN_VBK_TREE
)

// JoinRule is a JoinKind plus the tree index used by JOIN_VBK_TREE.
type JoinRule struct {
	Kind      JoinKind
	TreeIndex uint32
}

func BtcJoin() JoinRule {
	return JoinRule{Kind: JOIN_BTC}
}

func VbkJoin() JoinRule {
	return JoinRule{Kind: JOIN_VBK}
}

func VbkTreeJoin(treeIndex uint32) JoinRule {
	return JoinRule{Kind: JOIN_VBK_TREE, TreeIndex: treeIndex}
}

func (r JoinRule) hash(left, right Sha256Hash) Sha256Hash {
	var pre [2 * SHA256_HASH_BYTES]byte
	copy(pre[:SHA256_HASH_BYTES], left[:])
	copy(pre[SHA256_HASH_BYTES:], right[:])
	if r.Kind == JOIN_BTC {
		return sha256Double(pre[:])
	}
	return sha256Single(pre[:])
}

// accOnRight reports whether the accumulator is the right operand at
// layer i of n.
func (r JoinRule) accOnRight(index uint32, i, n int) bool {
	if r.Kind == JOIN_VBK_TREE {
		switch i {
		case n - 1:
			return true
		case n - 2:
			return r.TreeIndex&1 == 1
		}
	}
	return (index>>uint(i))&1 == 1
}

// MerkleRoot folds subject with every layer under rule. An empty path
// yields subject itself.
func MerkleRoot(index uint32, subject Sha256Hash, layers []Sha256Hash, rule JoinRule) Sha256Hash {
	acc := subject
	n := len(layers)
	for i, layer := range layers {
		if rule.accOnRight(index, i, n) {
			acc = rule.hash(layer, acc)
		} else {
			acc = rule.hash(acc, layer)
		}
	}
	return acc
}

// merkleBranch builds the tree over leaves and returns its root together
// with the sibling path of leaves[idx]. An odd level duplicates its last
// element.
func merkleBranch(leaves []Sha256Hash, idx int, rule JoinRule) (Sha256Hash, []Sha256Hash, error) {
	if len(leaves) == 0 {
		return Sha256Hash{}, nil, codecErr(ERR_OUT_OF_RANGE, "merkle leaves", "empty leaf list")
	}
	if idx < 0 || idx >= len(leaves) {
		return Sha256Hash{}, nil, codecErr(ERR_OUT_OF_RANGE, "merkle index", "index %d outside [0, %d)", idx, len(leaves))
	}
	level := append([]Sha256Hash(nil), leaves...)
	var branch []Sha256Hash
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		branch = append(branch, level[idx^1])
		next := make([]Sha256Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, rule.hash(level[i], level[i+1]))
		}
		level = next
		idx /= 2
	}
	if len(branch) > MAX_MERKLE_LAYERS {
		return Sha256Hash{}, nil, codecErr(ERR_CAP_EXCEEDED, "merkle layers", "%d layers exceed %d", len(branch), MAX_MERKLE_LAYERS)
	}
	return level[0], branch, nil
}

// BtcMerkleRoot returns the Bitcoin merkle root of txids (internal byte
// order).
func BtcMerkleRoot(txids []Sha256Hash) (Sha256Hash, error) {
	root, _, err := merkleBranch(txids, 0, BtcJoin())
	return root, err
}

// BtcMerklePathFor returns the path proving txids[idx].
func BtcMerklePathFor(txids []Sha256Hash, idx int) (*MerklePath, error) {
	_, branch, err := merkleBranch(txids, idx, BtcJoin())
	if err != nil {
		return nil, err
	}
	// #nosec G115 -- idx is bounded by the leaf count, itself bounded by the layer cap.
	return &MerklePath{Index: uint32(idx), Subject: txids[idx], Layers: branch}, nil
}

// Tree indexes of the two VeriBlock transaction sub-trees.
const (
	VBK_POP_TREE    uint32 = 0
	VBK_NORMAL_TREE uint32 = 1
)

// vbkSubtreeRoot returns the sub-tree root; an empty sub-tree is all zeros.
func vbkSubtreeRoot(ids []Sha256Hash) Sha256Hash {
	if len(ids) == 0 {
		return Sha256Hash{}
	}
	root, _, _ := merkleBranch(ids, 0, VbkJoin())
	return root
}

// VbkBlockMerkleRoot returns the full VeriBlock block root:
// join(meta, join(popRoot, normalRoot)). Blocks store only its first 16
// bytes.
func VbkBlockMerkleRoot(meta Sha256Hash, pop, normal []Sha256Hash) Sha256Hash {
	rule := VbkJoin()
	return rule.hash(meta, rule.hash(vbkSubtreeRoot(pop), vbkSubtreeRoot(normal)))
}

// VbkMerklePathFor returns the path proving the idx-th transaction of the
// sub-tree selected by treeIndex.
func VbkMerklePathFor(meta Sha256Hash, pop, normal []Sha256Hash, treeIndex uint32, idx int) (*VbkMerklePath, error) {
	ids, sibling := pop, vbkSubtreeRoot(normal)
	switch treeIndex {
	case VBK_POP_TREE:
	case VBK_NORMAL_TREE:
		ids, sibling = normal, vbkSubtreeRoot(pop)
	default:
		return nil, codecErr(ERR_OUT_OF_RANGE, "tree index", "tree index %d not in {0, 1}", treeIndex)
	}
	_, branch, err := merkleBranch(ids, idx, VbkJoin())
	if err != nil {
		return nil, err
	}
	if len(branch)+2 > MAX_MERKLE_LAYERS {
		return nil, codecErr(ERR_CAP_EXCEEDED, "merkle layers", "%d layers exceed %d", len(branch)+2, MAX_MERKLE_LAYERS)
	}
	layers := append(branch, sibling, meta)
	return &VbkMerklePath{
		TreeIndex: treeIndex,
		// #nosec G115 -- idx is bounded by the leaf count.
		Index:   uint32(idx),
		Subject: ids[idx],
		Layers:  layers,
	}, nil
}
