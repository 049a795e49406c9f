package consensus

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/VeriBlock/nodecore-sub002/crypto"
)

const (
	testT0 = 1_700_000_000

	testBtcBits      uint32 = 0x207fffff // regtest pow limit
	testVbkDiffOne   uint32 = 0x01010000 // decodes to 1
	testVbkDiffTwo   uint32 = 0x01020000 // decodes to 2
	testBtcTxPadding        = 16
)

type testSigner struct {
	priv *btcec.PrivateKey
	pub  []byte
	addr Address
}

func mustSigner(t *testing.T) *testSigner {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pub := priv.PubKey().SerializeCompressed()
	return &testSigner{priv: priv, pub: pub, addr: AddressFromPublicKey(pub)}
}

func (s *testSigner) sign(id Sha256Hash) []byte {
	return crypto.SignMessage(s.priv, id[:])
}

func testClock() clock.Clock {
	return clock.NewTestClock(time.Unix(testT0+60, 0))
}

func testValidator() *Validator {
	return NewValidator(&RegTestParams, crypto.Secp256k1Provider{}, testClock())
}

func hashOf(s string) Sha256Hash {
	return Sha256Hash(sha256.Sum256([]byte(s)))
}

func btcPowOK(b *BtcBlock) bool {
	target, _ := BtcTarget(b.Bits)
	h := chainhash.Hash(b.Hash())
	return blockchain.HashToBig(&h).Cmp(target) <= 0
}

// mineBtcBlock searches nonces until the header meets the regtest target.
func mineBtcBlock(t *testing.T, prev, root Sha256Hash, ts uint32) *BtcBlock {
	t.Helper()
	for nonce := uint32(0); nonce < 1<<16; nonce++ {
		b := NewBtcBlock(1, prev, root, ts, testBtcBits, nonce)
		if btcPowOK(b) {
			return b
		}
	}
	t.Fatalf("no nonce found")
	return nil
}

// unmineBtcBlock searches nonces until the header misses the target.
func unmineBtcBlock(t *testing.T, prev, root Sha256Hash, ts uint32) *BtcBlock {
	t.Helper()
	for nonce := uint32(0); nonce < 1<<16; nonce++ {
		b := NewBtcBlock(1, prev, root, ts, testBtcBits, nonce)
		if !btcPowOK(b) {
			return b
		}
	}
	t.Fatalf("no failing nonce found")
	return nil
}

func testVbkBlock(height int32, prev *VbkBlock, root []byte) *VbkBlock {
	b := &VbkBlock{
		Height:     height,
		Version:    2,
		Timestamp:  testT0,
		Difficulty: testVbkDiffOne,
		Nonce:      uint32(height),
	}
	if prev != nil {
		b.PrevBlock = prev.Hash().TrimPrevBlock()
		b.PrevKeystone = prev.Hash().TrimKeystone()
	}
	copy(b.MerkleRoot[:], root)
	return b
}

func wrapBtcTx(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+2*testBtcTxPadding)
	for i := 0; i < testBtcTxPadding; i++ {
		out = append(out, byte(0x10+i))
	}
	out = append(out, payload...)
	for i := 0; i < testBtcTxPadding; i++ {
		out = append(out, byte(0x40+i))
	}
	return out
}

// popFixture holds every part of a PoP transaction so that tests can
// change one part and rebuild.
type popFixture struct {
	signer    *testSigner
	published *VbkBlock
	btcTx     []byte
	path      *MerklePath
	bop       *BtcBlock
	context   []*BtcBlock
}

func newPopFixture(t *testing.T) *popFixture {
	t.Helper()
	f := &popFixture{signer: mustSigner(t)}
	f.published = testVbkBlock(100, nil, hashOf("published-root").Trim(VBK_MERKLE_ROOT_BYTES))
	popData, err := PopDataFor(f.published, f.signer.addr)
	if err != nil {
		t.Fatalf("PopDataFor: %v", err)
	}
	f.btcTx = wrapBtcTx(popData)
	f.anchor(t)
	return f
}

// anchor places btcTx in a mined block of proof on top of two context
// blocks.
func (f *popFixture) anchor(t *testing.T) {
	t.Helper()
	txids := []Sha256Hash{hashOf("coinbase"), sha256Double(f.btcTx), hashOf("other")}
	path, err := BtcMerklePathFor(txids, 1)
	if err != nil {
		t.Fatalf("BtcMerklePathFor: %v", err)
	}
	root, err := BtcMerkleRoot(txids)
	if err != nil {
		t.Fatalf("BtcMerkleRoot: %v", err)
	}
	c0 := mineBtcBlock(t, Sha256Hash{}, hashOf("c0"), testT0)
	c1 := mineBtcBlock(t, c0.Hash(), hashOf("c1"), testT0)
	f.path = path
	f.context = []*BtcBlock{c0, c1}
	f.bop = mineBtcBlock(t, c1.Hash(), root, testT0)
}

func (f *popFixture) build(t *testing.T, network *NetworkParams) *PopTx {
	t.Helper()
	tx, err := NewPopTx(network.TxMagic, f.signer.addr, f.published, f.btcTx, f.path, f.bop, f.context)
	if err != nil {
		t.Fatalf("NewPopTx: %v", err)
	}
	signed, err := tx.WithSignature(f.signer.sign(tx.ID()), f.signer.pub)
	if err != nil {
		t.Fatalf("WithSignature: %v", err)
	}
	return signed
}

// vbkChain builds two context blocks and a containing block whose merkle
// root commits to tx in the given sub-tree.
func vbkChain(t *testing.T, id Sha256Hash, treeIndex uint32) (*VbkMerklePath, *VbkBlock, []*VbkBlock) {
	t.Helper()
	meta := hashOf("meta")
	pop := []Sha256Hash{hashOf("pop-a")}
	normal := []Sha256Hash{hashOf("normal-a"), hashOf("normal-b")}
	idx := 0
	if treeIndex == VBK_POP_TREE {
		pop = append(pop, id)
		idx = len(pop) - 1
	} else {
		normal = append(normal, id)
		idx = len(normal) - 1
	}
	path, err := VbkMerklePathFor(meta, pop, normal, treeIndex, idx)
	if err != nil {
		t.Fatalf("VbkMerklePathFor: %v", err)
	}
	root := VbkBlockMerkleRoot(meta, pop, normal)
	c0 := testVbkBlock(200, nil, hashOf("v0").Trim(VBK_MERKLE_ROOT_BYTES))
	c1 := testVbkBlock(201, c0, hashOf("v1").Trim(VBK_MERKLE_ROOT_BYTES))
	containing := testVbkBlock(202, c1, root.Trim(VBK_MERKLE_ROOT_BYTES))
	return path, containing, []*VbkBlock{c0, c1}
}

func mustVtb(t *testing.T, f *popFixture) *VbkPublication {
	t.Helper()
	tx := f.build(t, &RegTestParams)
	path, containing, context := vbkChain(t, tx.ID(), VBK_POP_TREE)
	p, err := NewPublication(tx, path, containing, context)
	if err != nil {
		t.Fatalf("NewPublication: %v", err)
	}
	return p
}

func testPublicationData() *PublicationData {
	return &PublicationData{
		Identifier:  0x3ae6ca,
		Header:      []byte("altchain block header"),
		PayoutInfo:  []byte("payout"),
		ContextInfo: []byte("context"),
	}
}

func mustStandardTx(t *testing.T, s *testSigner, amount Coin, outputs []Output, data []byte) *StandardTx {
	t.Helper()
	tx, err := NewStandardTx(RegTestParams.TxMagic, s.addr, amount, outputs, 7, data)
	if err != nil {
		t.Fatalf("NewStandardTx: %v", err)
	}
	signed, err := tx.WithSignature(s.sign(tx.ID()), s.pub)
	if err != nil {
		t.Fatalf("WithSignature: %v", err)
	}
	return signed
}

func mustAtv(t *testing.T, tx *StandardTx) *AltPublication {
	t.Helper()
	path, containing, context := vbkChain(t, tx.ID(), VBK_NORMAL_TREE)
	p, err := NewPublication(tx, path, containing, context)
	if err != nil {
		t.Fatalf("NewPublication: %v", err)
	}
	return p
}

func mustCodecCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	code, ok := CodeOf(err)
	if !ok {
		t.Fatalf("expected *CodecError, got %T: %v", err, err)
	}
	return code
}

func mustReason(t *testing.T, err error) Reason {
	t.Helper()
	if err == nil {
		t.Fatalf("expected rejection")
	}
	r, ok := ReasonOf(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	return r
}
