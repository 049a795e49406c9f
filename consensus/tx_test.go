package consensus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

func TestStandardTx_RoundTrip(t *testing.T) {
	s := mustSigner(t)
	outputs := []Output{
		{Address: mustSigner(t).addr, Amount: 5 * COIN_UNITS},
		{Address: MustParseAddress(testMultisigText(strings.Repeat("mN4", 8))), Amount: 1},
	}
	for _, params := range []*NetworkParams{&MainNetParams, &TestNetParams, &RegTestParams} {
		t.Run(params.Name, func(t *testing.T) {
			tx, err := NewStandardTx(params.TxMagic, s.addr, 6*COIN_UNITS, outputs, 42, []byte("data"))
			require.NoError(t, err)
			signed, err := tx.WithSignature(s.sign(tx.ID()), s.pub)
			require.NoError(t, err)
			require.Equal(t, tx.ID(), signed.ID())
			require.Equal(t, sha256Single(signed.Effects()), signed.ID())

			got, err := DecodeStandardTx(signed.Encode())
			require.NoError(t, err)
			require.True(t, got.Equal(signed))
			require.Equal(t, signed.ID(), got.ID())
			require.Equal(t, params.TxMagic, got.Network)
			require.Equal(t, outputs, got.Outputs)
			require.Equal(t, int64(42), got.SignatureIndex)

			first := got.Effects()[0]
			if params.TxMagic.IsSome() {
				require.Equal(t, params.TxMagic.UnwrapOr(0), first)
				require.Equal(t, TX_TYPE_STANDARD, got.Effects()[1])
			} else {
				require.Equal(t, TX_TYPE_STANDARD, first)
			}
		})
	}
}

func TestStandardTx_MultisigSource(t *testing.T) {
	src := MustParseAddress(testMultisigText(strings.Repeat("Zz2", 8)))
	tx, err := NewStandardTx(fn.None[byte](), src, 10, nil, -1, nil)
	require.NoError(t, err)
	require.Equal(t, TX_TYPE_MULTISIG, tx.TypeTag())
	require.Equal(t, TX_TYPE_MULTISIG, tx.Effects()[0])

	got, err := DecodeStandardTx(tx.Encode())
	require.NoError(t, err)
	require.True(t, got.Equal(tx))
	require.Equal(t, int64(-1), got.SignatureIndex)
	require.Nil(t, got.Outputs)
	require.Nil(t, got.Data)
}

func TestStandardTx_DecodeErrors(t *testing.T) {
	s := mustSigner(t)
	tx := mustStandardTx(t, s, 100, nil, []byte("payload"))
	effects := tx.Effects()

	// Same fields with a two-byte signature index.
	var padded []byte
	padded = append(padded, effects[0], effects[1])
	padded = appendAddress(padded, tx.SourceAddress)
	padded = appendCoin(padded, tx.SourceAmount)
	padded = append(padded, 0)
	padded = append(padded, 0x02, 0x00, 0x07)
	padded = appendVarLenValue(padded, tx.Data)

	wrongTag := clone(effects)
	wrongTag[1] = TX_TYPE_MULTISIG

	sig73 := appendVarLenValue(nil, effects)
	sig73 = appendSingleByteLenValue(sig73, make([]byte, 73))
	sig73 = appendSingleByteLenValue(sig73, s.pub)

	cases := []struct {
		name string
		raw  []byte
		want ErrorCode
	}{
		{"empty", nil, ERR_SHORT_BUFFER},
		{"non-minimal index", encodeSigned(padded, tx.Signature, tx.PublicKey), ERR_NONCANONICAL},
		{"pop tag after network byte", encodeSigned([]byte{0xBB, TX_TYPE_POP}, nil, nil), ERR_BAD_TYPE_TAG},
		{"multisig tag on standard source", encodeSigned(wrongTag, nil, nil), ERR_BAD_TYPE_TAG},
		{"effects trailing", encodeSigned(append(clone(effects), 0x00), nil, nil), ERR_TRAILING_BYTES},
		{"stream trailing", append(tx.Encode(), 0x00), ERR_TRAILING_BYTES},
		{"truncated", tx.Encode()[:len(tx.Encode())-3], ERR_SHORT_BUFFER},
		{"signature cap", sig73, ERR_CAP_EXCEEDED},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeStandardTx(tc.raw)
			require.Equal(t, tc.want, mustCodecCode(t, err))
		})
	}
}

func TestStandardTx_ConstructorCaps(t *testing.T) {
	s := mustSigner(t)
	_, err := NewStandardTx(fn.None[byte](), s.addr, 1, make([]Output, MAX_OUTPUTS+1), 0, nil)
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))

	_, err = NewStandardTx(fn.None[byte](), s.addr, 1, nil, 0, make([]byte, MAX_TX_DATA_BYTES+1))
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))

	tx, err := NewStandardTx(fn.None[byte](), s.addr, 1, nil, 0, nil)
	require.NoError(t, err)
	_, err = tx.WithSignature(make([]byte, MAX_SIGNATURE_BYTES+1), s.pub)
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
	_, err = tx.WithSignature(nil, make([]byte, MAX_PUBKEY_BYTES+1))
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
}

func TestPopTx_RoundTrip(t *testing.T) {
	f := newPopFixture(t)
	for _, params := range []*NetworkParams{&MainNetParams, &RegTestParams} {
		t.Run(params.Name, func(t *testing.T) {
			tx := f.build(t, params)
			got, err := DecodePopTx(tx.Encode())
			require.NoError(t, err)
			require.True(t, got.Equal(tx))
			require.Equal(t, tx.ID(), got.ID())
			require.Equal(t, params.TxMagic, got.Network)
			require.True(t, got.PublishedBlock.Equal(f.published))
			require.True(t, got.BlockOfProof.Equal(f.bop))
			require.Len(t, got.BlockOfProofContext, len(f.context))
			require.Equal(t, f.path, got.MerklePath)
			require.Equal(t, f.signer.addr, got.SourceAddress)
		})
	}
}

func TestPopTx_PopData(t *testing.T) {
	f := newPopFixture(t)
	tx := f.build(t, &RegTestParams)
	data, err := tx.PopData()
	require.NoError(t, err)
	require.Len(t, data, POP_DATA_BYTES)
	require.Equal(t, f.published.HeaderBytes(), data[:VBK_HEADER_BYTES])
	pop := f.signer.addr.PoPBytes()
	require.Equal(t, pop[:], data[VBK_HEADER_BYTES:])
	require.True(t, bytes.Contains(tx.BitcoinTx, data))
}

func TestPopTx_DecodeErrors(t *testing.T) {
	f := newPopFixture(t)
	tx := f.build(t, &RegTestParams)
	effects := tx.Effects()

	// The context count is the last field before the context blocks.
	tail := len(f.context) * (1 + BTC_HEADER_BYTES)
	head := effects[:len(effects)-tail-2]
	padded := append(clone(head), 0x02, 0x00, byte(len(f.context)))
	padded = append(padded, effects[len(effects)-tail:]...)

	cases := []struct {
		name string
		raw  []byte
		want ErrorCode
	}{
		{"non-minimal context count", encodeSigned(padded, nil, nil), ERR_NONCANONICAL},
		{"standard tag", encodeSigned([]byte{0xBB, TX_TYPE_STANDARD}, nil, nil), ERR_BAD_TYPE_TAG},
		{"only network byte", encodeSigned([]byte{0xBB}, nil, nil), ERR_SHORT_BUFFER},
		{"stream trailing", append(tx.Encode(), 0x01), ERR_TRAILING_BYTES},
		{"effects trailing", encodeSigned(append(clone(effects), 0x01), nil, nil), ERR_TRAILING_BYTES},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePopTx(tc.raw)
			require.Equal(t, tc.want, mustCodecCode(t, err))
		})
	}

	_, err := NewPopTx(fn.None[byte](), f.signer.addr, f.published, make([]byte, MAX_RAW_TX_BYTES+1), f.path, f.bop, nil)
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
}

func TestPopTx_MissingComponents(t *testing.T) {
	f := newPopFixture(t)
	cases := []struct {
		name      string
		published *VbkBlock
		path      *MerklePath
		bop       *BtcBlock
		context   []*BtcBlock
	}{
		{"published block", nil, f.path, f.bop, f.context},
		{"merkle path", f.published, nil, f.bop, f.context},
		{"block of proof", f.published, f.path, nil, f.context},
		{"context entry", f.published, f.path, f.bop, append([]*BtcBlock{f.context[0]}, nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPopTx(fn.None[byte](), f.signer.addr, tc.published, f.btcTx, tc.path, tc.bop, tc.context)
			require.Equal(t, ERR_OUT_OF_RANGE, mustCodecCode(t, err))

			literal := &PopTx{
				SourceAddress:       f.signer.addr,
				PublishedBlock:      tc.published,
				BitcoinTx:           f.btcTx,
				MerklePath:          tc.path,
				BlockOfProof:        tc.bop,
				BlockOfProofContext: tc.context,
			}
			err = testValidator().ValidatePopTx(literal)
			require.Equal(t, ERR_OUT_OF_RANGE, mustCodecCode(t, err))
		})
	}

	_, err := PopDataFor(nil, f.signer.addr)
	require.Equal(t, ERR_OUT_OF_RANGE, mustCodecCode(t, err))
	_, err = (&PopTx{SourceAddress: f.signer.addr}).PopData()
	require.Equal(t, ERR_OUT_OF_RANGE, mustCodecCode(t, err))
}
