package consensus

import (
	"bytes"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Transaction is the shape shared by both VeriBlock transaction kinds.
type Transaction interface {
	// ID is sha256 of the effects bytes.
	ID() Sha256Hash
	// Effects is every signed field, signature and public key excluded.
	Effects() []byte
	// Encode returns the full stream form.
	Encode() []byte
}

var (
	_ Transaction = (*StandardTx)(nil)
	_ Transaction = (*PopTx)(nil)
)

// Output is one payment of a standard transaction.
type Output struct {
	Address Address
	Amount  Coin
}

// StandardTx is a value transfer. ATVs carry publication data in Data.
//
// Values are immutable once built: the effects and ID are computed by the
// constructor and are not refreshed if fields are changed afterwards.
type StandardTx struct {
	Network        fn.Option[byte]
	SourceAddress  Address
	SourceAmount   Coin
	Outputs        []Output
	SignatureIndex int64
	Data           []byte
	Signature      []byte
	PublicKey      []byte

	effects []byte
	id      Sha256Hash
}

// NewStandardTx builds an unsigned standard transaction.
func NewStandardTx(network fn.Option[byte], source Address, amount Coin, outputs []Output, signatureIndex int64, data []byte) (*StandardTx, error) {
	if len(outputs) > MAX_OUTPUTS {
		return nil, codecErr(ERR_CAP_EXCEEDED, "outputs", "%d outputs exceed %d", len(outputs), MAX_OUTPUTS)
	}
	if len(data) > MAX_TX_DATA_BYTES {
		return nil, codecErr(ERR_CAP_EXCEEDED, "data", "%d bytes exceed %d", len(data), MAX_TX_DATA_BYTES)
	}
	tx := &StandardTx{
		Network:        network,
		SourceAddress:  source,
		SourceAmount:   amount,
		Outputs:        outputs,
		SignatureIndex: signatureIndex,
		Data:           data,
	}
	tx.effects = tx.buildEffects()
	tx.id = sha256Single(tx.effects)
	return tx, nil
}

// TypeTag is 0x03 for a multisig source and 0x01 otherwise.
func (tx *StandardTx) TypeTag() byte {
	if tx.SourceAddress.Kind == ADDRESS_MULTISIG {
		return TX_TYPE_MULTISIG
	}
	return TX_TYPE_STANDARD
}

func (tx *StandardTx) buildEffects() []byte {
	var out []byte
	tx.Network.WhenSome(func(b byte) {
		out = append(out, b)
	})
	out = append(out, tx.TypeTag())
	out = appendAddress(out, tx.SourceAddress)
	out = appendCoin(out, tx.SourceAmount)
	out = append(out, byte(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		out = appendAddress(out, o.Address)
		out = appendCoin(out, o.Amount)
	}
	out = appendTrimmedInt64(out, tx.SignatureIndex)
	return appendVarLenValue(out, tx.Data)
}

func (tx *StandardTx) ID() Sha256Hash {
	return tx.id
}

func (tx *StandardTx) Effects() []byte {
	return tx.effects
}

// WithSignature returns a copy carrying sig and pub. The ID is unchanged.
func (tx *StandardTx) WithSignature(sig, pub []byte) (*StandardTx, error) {
	if err := checkSigPub(sig, pub); err != nil {
		return nil, err
	}
	cp := *tx
	cp.Signature = clone(sig)
	cp.PublicKey = clone(pub)
	return &cp, nil
}

func (tx *StandardTx) Encode() []byte {
	return encodeSigned(tx.effects, tx.Signature, tx.PublicKey)
}

// Equal compares the full stream forms.
func (tx *StandardTx) Equal(o *StandardTx) bool {
	return bytes.Equal(tx.Encode(), o.Encode())
}

// PopTx proves that PublishedBlock was embedded in a Bitcoin transaction
// mined in BlockOfProof. BlockOfProofContext lists ancestors of the block
// of proof, oldest first.
type PopTx struct {
	Network             fn.Option[byte]
	SourceAddress       Address
	PublishedBlock      *VbkBlock
	BitcoinTx           []byte
	MerklePath          *MerklePath
	BlockOfProof        *BtcBlock
	BlockOfProofContext []*BtcBlock
	Signature           []byte
	PublicKey           []byte

	effects []byte
	id      Sha256Hash
}

// NewPopTx builds an unsigned PoP transaction.
func NewPopTx(network fn.Option[byte], source Address, published *VbkBlock, bitcoinTx []byte, path *MerklePath, blockOfProof *BtcBlock, context []*BtcBlock) (*PopTx, error) {
	if err := checkPopComponents(published, path, blockOfProof, context); err != nil {
		return nil, err
	}
	if len(bitcoinTx) > MAX_RAW_TX_BYTES {
		return nil, codecErr(ERR_CAP_EXCEEDED, "bitcoin tx", "%d bytes exceed %d", len(bitcoinTx), MAX_RAW_TX_BYTES)
	}
	if len(path.Layers) > MAX_MERKLE_LAYERS {
		return nil, codecErr(ERR_CAP_EXCEEDED, "merkle layers", "%d layers exceed %d", len(path.Layers), MAX_MERKLE_LAYERS)
	}
	if len(context) > MAX_POP_TX_CONTEXT {
		return nil, codecErr(ERR_CAP_EXCEEDED, "btc context", "%d blocks exceed %d", len(context), MAX_POP_TX_CONTEXT)
	}
	tx := &PopTx{
		Network:             network,
		SourceAddress:       source,
		PublishedBlock:      published,
		BitcoinTx:           bitcoinTx,
		MerklePath:          path,
		BlockOfProof:        blockOfProof,
		BlockOfProofContext: context,
	}
	tx.effects = tx.buildEffects()
	tx.id = sha256Single(tx.effects)
	return tx, nil
}

// checkPopComponents rejects missing headers, paths and context entries.
func checkPopComponents(published *VbkBlock, path *MerklePath, blockOfProof *BtcBlock, context []*BtcBlock) error {
	switch {
	case published == nil:
		return codecErr(ERR_OUT_OF_RANGE, "published block", "missing")
	case path == nil:
		return codecErr(ERR_OUT_OF_RANGE, "merkle path", "missing")
	case blockOfProof == nil:
		return codecErr(ERR_OUT_OF_RANGE, "block of proof", "missing")
	}
	for i, b := range context {
		if b == nil {
			return codecErr(ERR_OUT_OF_RANGE, "btc context", "block %d missing", i)
		}
	}
	return nil
}

func (tx *PopTx) buildEffects() []byte {
	var out []byte
	tx.Network.WhenSome(func(b byte) {
		out = append(out, b)
	})
	out = append(out, TX_TYPE_POP)
	out = appendAddress(out, tx.SourceAddress)
	out = appendVbkBlock(out, tx.PublishedBlock)
	out = appendVarLenValue(out, tx.BitcoinTx)
	out = appendMerklePath(out, tx.MerklePath)
	out = appendBtcBlock(out, tx.BlockOfProof)
	out = appendCount(out, len(tx.BlockOfProofContext))
	for _, b := range tx.BlockOfProofContext {
		out = appendBtcBlock(out, b)
	}
	return out
}

func (tx *PopTx) ID() Sha256Hash {
	return tx.id
}

func (tx *PopTx) Effects() []byte {
	return tx.effects
}

// WithSignature returns a copy carrying sig and pub. The ID is unchanged.
func (tx *PopTx) WithSignature(sig, pub []byte) (*PopTx, error) {
	if err := checkSigPub(sig, pub); err != nil {
		return nil, err
	}
	cp := *tx
	cp.Signature = clone(sig)
	cp.PublicKey = clone(pub)
	return &cp, nil
}

func (tx *PopTx) Encode() []byte {
	return encodeSigned(tx.effects, tx.Signature, tx.PublicKey)
}

// Equal compares the full stream forms.
func (tx *PopTx) Equal(o *PopTx) bool {
	return bytes.Equal(tx.Encode(), o.Encode())
}

// PopData returns the 80 bytes a PoP miner embeds in the Bitcoin
// transaction: the published header followed by the endorser's PoP bytes.
func (tx *PopTx) PopData() ([]byte, error) {
	return PopDataFor(tx.PublishedBlock, tx.SourceAddress)
}

// PopDataFor returns header(block) || addr.PoPBytes().
func PopDataFor(block *VbkBlock, addr Address) ([]byte, error) {
	if block == nil {
		return nil, codecErr(ERR_OUT_OF_RANGE, "published block", "missing")
	}
	out := make([]byte, 0, POP_DATA_BYTES)
	out = append(out, block.HeaderBytes()...)
	pop := addr.PoPBytes()
	return append(out, pop[:]...), nil
}

func checkSigPub(sig, pub []byte) error {
	if len(sig) > MAX_SIGNATURE_BYTES {
		return codecErr(ERR_CAP_EXCEEDED, "signature", "%d bytes exceed %d", len(sig), MAX_SIGNATURE_BYTES)
	}
	if len(pub) > MAX_PUBKEY_BYTES {
		return codecErr(ERR_CAP_EXCEEDED, "public key", "%d bytes exceed %d", len(pub), MAX_PUBKEY_BYTES)
	}
	return nil
}

func encodeSigned(effects, sig, pub []byte) []byte {
	out := make([]byte, 0, len(effects)+len(sig)+len(pub)+8)
	out = appendVarLenValue(out, effects)
	out = appendSingleByteLenValue(out, sig)
	return appendSingleByteLenValue(out, pub)
}
