package consensus

import (
	"bytes"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// DecodeStandardTx decodes the full stream form of a standard transaction
// and rejects trailing bytes.
func DecodeStandardTx(raw []byte) (*StandardTx, error) {
	cur := newCursor(raw)
	tx, err := readStandardTx(cur, "standard tx")
	if err != nil {
		return nil, err
	}
	if err := cur.done("standard tx"); err != nil {
		return nil, err
	}
	return tx, nil
}

// DecodePopTx decodes the full stream form of a PoP transaction and
// rejects trailing bytes.
func DecodePopTx(raw []byte) (*PopTx, error) {
	cur := newCursor(raw)
	tx, err := readPopTx(cur, "pop tx")
	if err != nil {
		return nil, err
	}
	if err := cur.done("pop tx"); err != nil {
		return nil, err
	}
	return tx, nil
}

// readSigned reads var-length effects, then signature and public key.
func readSigned(cur *cursor, field string, maxEffects int) (effects, sig, pub []byte, err error) {
	effects, err = cur.readVarLenValue(field, maxEffects)
	if err != nil {
		return nil, nil, nil, err
	}
	sig, err = cur.readSingleByteLenValue("signature", 0, MAX_SIGNATURE_BYTES)
	if err != nil {
		return nil, nil, nil, err
	}
	pub, err = cur.readSingleByteLenValue("public key", 0, MAX_PUBKEY_BYTES)
	if err != nil {
		return nil, nil, nil, err
	}
	return effects, sig, pub, nil
}

// readNetworkAndType consumes the optional network byte and the type tag.
// The network byte is present exactly when the first byte is not one of
// the accepted tags.
func readNetworkAndType(cur *cursor, accepted ...byte) (fn.Option[byte], byte, error) {
	first, err := cur.readU8("type")
	if err != nil {
		return fn.None[byte](), 0, err
	}
	if bytes.IndexByte(accepted, first) >= 0 {
		return fn.None[byte](), first, nil
	}
	tag, err := cur.readU8("type")
	if err != nil {
		return fn.None[byte](), 0, err
	}
	if bytes.IndexByte(accepted, tag) < 0 {
		return fn.None[byte](), 0, codecErr(ERR_BAD_TYPE_TAG, "type", "tag 0x%02x after network byte 0x%02x", tag, first)
	}
	return fn.Some(first), tag, nil
}

func readStandardTx(cur *cursor, field string) (*StandardTx, error) {
	effects, sig, pub, err := readSigned(cur, field, MAX_STANDARD_TX_EFFECTS_BYTES)
	if err != nil {
		return nil, err
	}
	tx, err := decodeStandardEffects(effects)
	if err != nil {
		return nil, err
	}
	tx.Signature, tx.PublicKey = sig, pub
	return tx, nil
}

func decodeStandardEffects(effects []byte) (*StandardTx, error) {
	cur := newCursor(effects)
	network, tag, err := readNetworkAndType(cur, TX_TYPE_STANDARD, TX_TYPE_MULTISIG)
	if err != nil {
		return nil, err
	}
	source, err := readAddress(cur, "source address")
	if err != nil {
		return nil, err
	}
	amount, err := readCoin(cur, "source amount")
	if err != nil {
		return nil, err
	}
	n, err := cur.readU8("outputs")
	if err != nil {
		return nil, err
	}
	var outputs []Output
	if n > 0 {
		outputs = make([]Output, 0, n)
	}
	for i := 0; i < int(n); i++ {
		addr, err := readAddress(cur, "output address")
		if err != nil {
			return nil, err
		}
		amt, err := readCoin(cur, "output amount")
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Address: addr, Amount: amt})
	}
	sigIndex, err := cur.readTrimmedInt64("signature index")
	if err != nil {
		return nil, err
	}
	data, err := cur.readVarLenValue("data", MAX_TX_DATA_BYTES)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		data = nil
	}
	if err := cur.done("standard tx effects"); err != nil {
		return nil, err
	}

	tx, err := NewStandardTx(network, source, amount, outputs, sigIndex, data)
	if err != nil {
		return nil, err
	}
	if tx.TypeTag() != tag {
		return nil, codecErr(ERR_BAD_TYPE_TAG, "type", "tag 0x%02x for %s source", tag, source.Kind)
	}
	if !bytes.Equal(tx.effects, effects) {
		return nil, codecErr(ERR_NONCANONICAL, "standard tx effects", "re-encoding differs from input")
	}
	return tx, nil
}

func readPopTx(cur *cursor, field string) (*PopTx, error) {
	effects, sig, pub, err := readSigned(cur, field, MAX_POP_TX_EFFECTS_BYTES)
	if err != nil {
		return nil, err
	}
	tx, err := decodePopEffects(effects)
	if err != nil {
		return nil, err
	}
	tx.Signature, tx.PublicKey = sig, pub
	return tx, nil
}

func decodePopEffects(effects []byte) (*PopTx, error) {
	cur := newCursor(effects)
	network, _, err := readNetworkAndType(cur, TX_TYPE_POP)
	if err != nil {
		return nil, err
	}
	source, err := readAddress(cur, "source address")
	if err != nil {
		return nil, err
	}
	published, err := readVbkBlock(cur, "published block")
	if err != nil {
		return nil, err
	}
	btcTx, err := cur.readVarLenValue("bitcoin tx", MAX_RAW_TX_BYTES)
	if err != nil {
		return nil, err
	}
	path, err := readMerklePath(cur, "merkle path")
	if err != nil {
		return nil, err
	}
	blockOfProof, err := readBtcBlock(cur, "block of proof")
	if err != nil {
		return nil, err
	}
	context, err := readBtcBlocks(cur, "block of proof context", MAX_POP_TX_CONTEXT)
	if err != nil {
		return nil, err
	}
	if err := cur.done("pop tx effects"); err != nil {
		return nil, err
	}

	tx, err := NewPopTx(network, source, published, btcTx, path, blockOfProof, context)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(tx.effects, effects) {
		return nil, codecErr(ERR_NONCANONICAL, "pop tx effects", "re-encoding differs from input")
	}
	return tx, nil
}

// readBtcBlocks reads a trimmed count followed by that many stream-form
// Bitcoin headers. Capacity never exceeds what the remaining bytes could
// hold.
func readBtcBlocks(cur *cursor, field string, max int) ([]*BtcBlock, error) {
	n, err := cur.readCount(field, max)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]*BtcBlock, 0, min(n, cur.remaining()/(1+BTC_HEADER_BYTES)))
	for i := 0; i < n; i++ {
		b, err := readBtcBlock(cur, field)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func readVbkBlocks(cur *cursor, field string, max int) ([]*VbkBlock, error) {
	n, err := cur.readCount(field, max)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]*VbkBlock, 0, min(n, cur.remaining()/(1+VBK_HEADER_BYTES)))
	for i := 0; i < n; i++ {
		b, err := readVbkBlock(cur, field)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
