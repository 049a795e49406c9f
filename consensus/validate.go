package consensus

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/VeriBlock/nodecore-sub002/crypto"
)

// Validator runs the ordered endorsement checks. It holds no mutable state
// and is safe for concurrent use.
type Validator struct {
	params *NetworkParams
	crypto crypto.Provider
	clock  clock.Clock
}

// NewValidator returns a validator for params. A nil provider selects the
// secp256k1 provider and a nil clock the wall clock.
func NewValidator(params *NetworkParams, provider crypto.Provider, clk clock.Clock) *Validator {
	if provider == nil {
		provider = crypto.Secp256k1Provider{}
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Validator{params: params, crypto: provider, clock: clk}
}

// Params returns the network parameters the validator checks against.
func (v *Validator) Params() *NetworkParams {
	return v.params
}

// CheckBtcBlock checks proof of work against the block's own bits and
// the timestamp drift allowance.
func (v *Validator) CheckBtcBlock(b *BtcBlock) error {
	target, err := BtcTarget(b.Bits)
	if err != nil {
		return reject(REJECT_BAD_DIFFICULTY, "btc block %s: %v", b.Hash().BtcString(), err)
	}
	if target.Sign() == 0 || target.Cmp(v.params.BtcParams.PowLimit) > 0 {
		return reject(REJECT_BAD_DIFFICULTY, "btc block %s: bits 0x%08x outside pow limit", b.Hash().BtcString(), b.Bits)
	}
	hash := chainhash.Hash(b.Hash())
	if blockchain.HashToBig(&hash).Cmp(target) > 0 {
		return reject(REJECT_BAD_POW, "btc block %s above target", hash)
	}
	return v.checkDrift("btc block "+hash.String(), b.Timestamp.Unix())
}

// CheckVbkBlock checks proof of work against MAX_VBK_TARGET divided by the
// block's difficulty, the network minimum difficulty and timestamp drift.
func (v *Validator) CheckVbkBlock(b *VbkBlock) error {
	hash := b.Hash()
	difficulty, err := DecodeCompact(b.Difficulty)
	if err != nil {
		return reject(REJECT_BAD_DIFFICULTY, "vbk block %s: %v", hash, err)
	}
	if difficulty.Cmp(v.params.MinVbkDifficulty) < 0 {
		return reject(REJECT_BAD_DIFFICULTY, "vbk block %s: difficulty %s below minimum %s", hash, difficulty, v.params.MinVbkDifficulty)
	}
	target, err := VbkTarget(b.Difficulty)
	if err != nil {
		return reject(REJECT_BAD_DIFFICULTY, "vbk block %s: %v", hash, err)
	}
	if hash.Big().Cmp(target) > 0 {
		return reject(REJECT_BAD_POW, "vbk block %s above target", hash)
	}
	return v.checkDrift("vbk block "+hash.String(), int64(b.Timestamp))
}

func (v *Validator) checkDrift(what string, timestamp int64) error {
	limit := v.clock.Now().Unix() + MAX_FUTURE_DRIFT_SECONDS
	if timestamp > limit {
		return reject(REJECT_TIME_TOO_NEW, "%s: timestamp %d after %d", what, timestamp, limit)
	}
	return nil
}

// CheckBtcContiguity requires every block to name its predecessor in the
// slice as its previous block.
func CheckBtcContiguity(blocks []*BtcBlock) error {
	for i := 1; i < len(blocks); i++ {
		if blocks[i].PrevHash() != blocks[i-1].Hash() {
			return reject(REJECT_DISCONTIGUOUS, "btc block %d does not follow block %d", i, i-1)
		}
	}
	return nil
}

// CheckVbkContiguity requires consecutive heights and matching truncated
// previous-block hashes.
func CheckVbkContiguity(blocks []*VbkBlock) error {
	for i := 1; i < len(blocks); i++ {
		prev, cur := blocks[i-1], blocks[i]
		if int64(cur.Height) != int64(prev.Height)+1 {
			return reject(REJECT_DISCONTIGUOUS, "vbk block %d has height %d after %d", i, cur.Height, prev.Height)
		}
		if cur.PrevBlock != prev.Hash().TrimPrevBlock() {
			return reject(REJECT_DISCONTIGUOUS, "vbk block %d does not follow block %d", i, i-1)
		}
	}
	return nil
}

func (v *Validator) checkSigner(kind string, id Sha256Hash, addr Address, sig, pub []byte) error {
	if !addr.IsDerivedFrom(v.crypto, pub) {
		return reject(REJECT_INVALID_PUBKEY, "%s %s: address %s not derived from public key", kind, id, addr)
	}
	if !v.crypto.VerifySignature(id[:], sig, pub) {
		return reject(REJECT_BAD_SIGNATURE, "%s %s", kind, id)
	}
	return nil
}

// ValidatePopTx runs the PoP transaction checks in order: network,
// signer, embedded PoP data, merkle subject, merkle root, then the block
// of proof chain.
func (v *Validator) ValidatePopTx(tx *PopTx) error {
	err := v.validatePopTx(tx)
	if err != nil {
		log.Debugf("Rejected pop tx %s: %v", tx.ID(), err)
	}
	return err
}

func (v *Validator) validatePopTx(tx *PopTx) error {
	if err := checkPopComponents(tx.PublishedBlock, tx.MerklePath, tx.BlockOfProof, tx.BlockOfProofContext); err != nil {
		return err
	}
	id := tx.ID()
	if !v.params.networkMatches(tx.Network) {
		return reject(REJECT_NETWORK_MISMATCH, "pop tx %s not for %s", id, v.params.Name)
	}
	if err := v.checkSigner("pop tx", id, tx.SourceAddress, tx.Signature, tx.PublicKey); err != nil {
		return err
	}
	popData, err := tx.PopData()
	if err != nil {
		return err
	}
	if !Contains(tx.BitcoinTx, popData) {
		return reject(REJECT_MISSING_POP_DATA, "pop tx %s", id)
	}
	if tx.MerklePath.Subject != sha256Double(tx.BitcoinTx) {
		return reject(REJECT_PATH_TX_MISMATCH, "pop tx %s: subject %s", id, tx.MerklePath.Subject)
	}
	if tx.MerklePath.Root() != tx.BlockOfProof.MerkleRootHash() {
		return reject(REJECT_NOT_IN_BLOCK, "pop tx %s: root %s", id, tx.MerklePath.Root())
	}

	chain := make([]*BtcBlock, 0, len(tx.BlockOfProofContext)+1)
	chain = append(chain, tx.BlockOfProofContext...)
	chain = append(chain, tx.BlockOfProof)
	if err := CheckBtcContiguity(chain); err != nil {
		return err
	}
	for _, b := range chain {
		if err := v.CheckBtcBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStandardTx runs the network, signer and amount checks.
func (v *Validator) ValidateStandardTx(tx *StandardTx) error {
	err := v.validateStandardTx(tx)
	if err != nil {
		log.Debugf("Rejected standard tx %s: %v", tx.ID(), err)
	}
	return err
}

func (v *Validator) validateStandardTx(tx *StandardTx) error {
	id := tx.ID()
	if !v.params.networkMatches(tx.Network) {
		return reject(REJECT_NETWORK_MISMATCH, "standard tx %s not for %s", id, v.params.Name)
	}
	if err := v.checkSigner("standard tx", id, tx.SourceAddress, tx.Signature, tx.PublicKey); err != nil {
		return err
	}
	if tx.SourceAmount < 0 {
		return reject(REJECT_INVALID_AMOUNTS, "standard tx %s: negative source amount %s", id, tx.SourceAmount)
	}
	var total Coin
	for i, o := range tx.Outputs {
		if o.Amount <= 0 {
			return reject(REJECT_INVALID_AMOUNTS, "standard tx %s: output %d amount %s", id, i, o.Amount)
		}
		sum, err := total.Add(o.Amount)
		if err != nil {
			return reject(REJECT_INVALID_AMOUNTS, "standard tx %s: %v", id, err)
		}
		total = sum
	}
	if total > tx.SourceAmount {
		return reject(REJECT_INVALID_AMOUNTS, "standard tx %s: outputs %s exceed source %s", id, total, tx.SourceAmount)
	}
	return nil
}

// ValidateVbkPublication validates a VTB: the PoP transaction, its
// inclusion in the containing block, then the VeriBlock chain.
func (v *Validator) ValidateVbkPublication(p *VbkPublication) error {
	err := v.ValidatePopTx(p.Transaction)
	if err == nil {
		err = v.validateInclusion("vtb", p.Transaction.ID(), p.MerklePath, p.Chain())
	}
	if err != nil {
		log.Debugf("Rejected vtb for tx %s: %v", p.Transaction.ID(), err)
	}
	return err
}

// ValidateAltPublication validates an ATV: the standard transaction, its
// publication data, its inclusion in the containing block, then the
// VeriBlock chain.
func (v *Validator) ValidateAltPublication(p *AltPublication) error {
	err := v.ValidateStandardTx(p.Transaction)
	if err == nil {
		if _, derr := DecodePublicationData(p.Transaction.Data); derr != nil {
			err = reject(REJECT_INVALID_PUBDATA, "atv tx %s: %v", p.Transaction.ID(), derr)
		}
	}
	if err == nil {
		err = v.validateInclusion("atv", p.Transaction.ID(), p.MerklePath, p.Chain())
	}
	if err != nil {
		log.Debugf("Rejected atv for tx %s: %v", p.Transaction.ID(), err)
	}
	return err
}

// validateInclusion checks that path proves id in the last block of chain
// and that chain is contiguous with every block valid.
func (v *Validator) validateInclusion(kind string, id Sha256Hash, path *VbkMerklePath, chain []*VbkBlock) error {
	last := len(chain) - 1
	if err := checkPublicationComponents(path, chain[last], chain[:last]); err != nil {
		return err
	}
	if path.Subject != id {
		return reject(REJECT_PATH_TX_MISMATCH, "%s: subject %s, tx %s", kind, path.Subject, id)
	}
	containing := chain[last]
	if !containing.vbkRootMatches(path.Root()) {
		return reject(REJECT_NOT_IN_BLOCK, "%s: root %x, block %x", kind, path.Root().Trim(VBK_MERKLE_ROOT_BYTES), containing.MerkleRoot[:])
	}
	if err := CheckVbkContiguity(chain); err != nil {
		return err
	}
	for _, b := range chain {
		if err := v.CheckVbkBlock(b); err != nil {
			return err
		}
	}
	return nil
}
