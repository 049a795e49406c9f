package consensus

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// bytesPerRun reports the average heap bytes allocated by one call of f.
func bytesPerRun(runs int, f func()) uint64 {
	f()
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	for i := 0; i < runs; i++ {
		f()
	}
	runtime.ReadMemStats(&after)
	return (after.TotalAlloc - before.TotalAlloc) / uint64(runs)
}

func TestDecode_DeclaredLengthDoesNotDriveAllocation(t *testing.T) {
	subject := hashOf("subject")
	layersBody := appendTrimmedInt64(nil, 0)
	layersBody = appendSingleByteLenValue(layersBody, subject[:])
	layersBody = appendCount(layersBody, MAX_MERKLE_LAYERS)

	cases := []struct {
		name string
		raw  []byte
		read func(cur *cursor) error
	}{
		{
			name: "vbk context",
			raw:  appendCount(nil, MAX_PUBLICATION_CONTEXT),
			read: func(cur *cursor) error {
				_, err := readVbkBlocks(cur, "context", MAX_PUBLICATION_CONTEXT)
				return err
			},
		},
		{
			name: "vbk context with one block",
			raw:  append(appendVbkBlock(appendCount(nil, MAX_PUBLICATION_CONTEXT), &VbkBlock{}), 0x40),
			read: func(cur *cursor) error {
				_, err := readVbkBlocks(cur, "context", MAX_PUBLICATION_CONTEXT)
				return err
			},
		},
		{
			name: "btc context",
			raw:  appendCount(nil, MAX_POP_TX_CONTEXT),
			read: func(cur *cursor) error {
				_, err := readBtcBlocks(cur, "context", MAX_POP_TX_CONTEXT)
				return err
			},
		},
		{
			name: "raw bitcoin tx",
			raw:  append(EncodeVarLen(MAX_RAW_TX_BYTES), 0x01, 0x02),
			read: func(cur *cursor) error {
				_, err := cur.readVarLenValue("btc tx", MAX_RAW_TX_BYTES)
				return err
			},
		},
		{
			name: "merkle layers",
			raw:  appendVarLenValue(nil, layersBody),
			read: func(cur *cursor) error {
				_, err := readMerklePath(cur, "path")
				return err
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read(newCursor(tc.raw))
			require.Equal(t, ERR_SHORT_BUFFER, mustCodecCode(t, err))

			allocs := testing.AllocsPerRun(20, func() {
				_ = tc.read(newCursor(tc.raw))
			})
			require.LessOrEqual(t, allocs, float64(16))

			// A buffer sized from the declared count would be at least
			// hundreds of kilobytes.
			require.Less(t, bytesPerRun(20, func() {
				_ = tc.read(newCursor(tc.raw))
			}), uint64(8192))
		})
	}
}

func TestStandardTx_MaxFieldsRoundTrip(t *testing.T) {
	s := mustSigner(t)
	outputs := make([]Output, MAX_OUTPUTS)
	for i := range outputs {
		outputs[i] = Output{Address: s.addr, Amount: Coin(i + 1)}
	}
	data := bytes.Repeat([]byte{0xa5}, MAX_TX_DATA_BYTES)
	tx := mustStandardTx(t, s, COIN_UNITS, outputs, data)

	got, err := DecodeStandardTx(tx.Encode())
	require.NoError(t, err)
	require.True(t, got.Equal(tx))
	require.Len(t, got.Outputs, MAX_OUTPUTS)
	require.Equal(t, Coin(MAX_OUTPUTS), got.Outputs[MAX_OUTPUTS-1].Amount)
	require.Equal(t, data, got.Data)
	require.Equal(t, tx.ID(), got.ID())

	_, err = NewStandardTx(RegTestParams.TxMagic, s.addr, 1, append(outputs, outputs[0]), 0, nil)
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
}

func TestMerklePath_MaxLayersRoundTrip(t *testing.T) {
	layers := make([]Sha256Hash, MAX_MERKLE_LAYERS)
	for i := range layers {
		layers[i] = hashOf(string(rune('a' + i)))
	}
	p := &MerklePath{Index: 0xffffffff, Subject: hashOf("subject"), Layers: layers}
	enc := EncodeMerklePath(p)
	require.LessOrEqual(t, len(enc), MAX_MERKLE_PATH_BYTES+1+MAX_VARLEN_WIDTH)

	got, err := DecodeMerklePath(enc)
	require.NoError(t, err)
	require.Equal(t, p, got)
	require.Equal(t, p.Root(), got.Root())

	parsed, err := ParseMerklePath(p.String())
	require.NoError(t, err)
	require.Equal(t, p, parsed)

	vp := &VbkMerklePath{TreeIndex: VBK_NORMAL_TREE, Index: 0xffffffff, Subject: p.Subject, Layers: layers}
	vgot, err := DecodeVbkMerklePath(EncodeVbkMerklePath(vp))
	require.NoError(t, err)
	require.Equal(t, vp, vgot)

	over := &MerklePath{Subject: p.Subject, Layers: append(layers, p.Subject)}
	_, err = DecodeMerklePath(EncodeMerklePath(over))
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
}

func TestAltPublication_MaxFieldsRoundTrip(t *testing.T) {
	pd := &PublicationData{
		Identifier:  -1,
		Header:      bytes.Repeat([]byte{0x01}, MAX_PUBDATA_HEADER_BYTES),
		PayoutInfo:  bytes.Repeat([]byte{0x02}, MAX_PUBDATA_PAYOUT_BYTES),
		ContextInfo: bytes.Repeat([]byte{0x03}, MAX_PUBDATA_CONTEXT_BYTES),
	}
	tx := mustStandardTx(t, mustSigner(t), 1, nil, pd.Encode())
	atv := mustAtv(t, tx)

	context := make([]*VbkBlock, MAX_PUBLICATION_CONTEXT)
	for i := range context {
		context[i] = &VbkBlock{Height: int32(i), Difficulty: testVbkDiffOne}
	}
	full, err := NewPublication(tx, atv.MerklePath, atv.ContainingBlock, context)
	require.NoError(t, err)

	got, err := DecodeAltPublication(full.Encode())
	require.NoError(t, err)
	require.Equal(t, full.Encode(), got.Encode())
	require.True(t, got.Transaction.Equal(tx))
	require.Len(t, got.Context, MAX_PUBLICATION_CONTEXT)
	require.Equal(t, int32(MAX_PUBLICATION_CONTEXT-1), got.Context[MAX_PUBLICATION_CONTEXT-1].Height)

	data, err := DecodePublicationData(got.Transaction.Data)
	require.NoError(t, err)
	require.Equal(t, pd, data)

	_, err = NewPublication(tx, atv.MerklePath, atv.ContainingBlock, append(context, context[0]))
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
}
