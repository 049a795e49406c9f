package consensus

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestVarLen_Vectors(t *testing.T) {
	cases := []struct {
		n    uint64
		want []byte
	}{
		{0, []byte{0x01, 0x00}},
		{1, []byte{0x01, 0x01}},
		{255, []byte{0x01, 0xff}},
		{256, []byte{0x02, 0x01, 0x00}},
		{300, []byte{0x02, 0x01, 0x2c}},
		{1 << 24, []byte{0x04, 0x01, 0x00, 0x00, 0x00}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, EncodeVarLen(tc.n), "n=%d", tc.n)
		got, used, err := DecodeVarLen(append(clone(tc.want), 0xee))
		require.NoError(t, err)
		require.Equal(t, tc.n, got)
		require.Equal(t, len(tc.want), used)
	}

	// Zero width and padded widths decode; only encoders are minimal.
	got, used, err := DecodeVarLen([]byte{0x00})
	require.NoError(t, err)
	require.Zero(t, got)
	require.Equal(t, 1, used)
	got, _, err = DecodeVarLen([]byte{0x03, 0x00, 0x01, 0x2c})
	require.NoError(t, err)
	require.EqualValues(t, 300, got)

	_, _, err = DecodeVarLen([]byte{0x05, 0, 0, 0, 0, 1})
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
	_, _, err = DecodeVarLen([]byte{0x02, 0x01})
	require.Equal(t, ERR_SHORT_BUFFER, mustCodecCode(t, err))
	_, _, err = DecodeVarLen(nil)
	require.Equal(t, ERR_SHORT_BUFFER, mustCodecCode(t, err))
}

func TestVarLen_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.Uint64Range(0, math.MaxUint32).Draw(rt, "n")
		enc := EncodeVarLen(n)
		got, used, err := DecodeVarLen(enc)
		if err != nil {
			rt.Fatalf("decode %x: %v", enc, err)
		}
		if got != n || used != len(enc) {
			rt.Fatalf("n=%d: got %d, used %d of %d", n, got, used, len(enc))
		}
	})
}

func TestCursor_Caps(t *testing.T) {
	cur := newCursor(appendVarLenValue(nil, make([]byte, 10)))
	_, err := cur.readVarLenValue("value", 9)
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))

	_, err = newCursor([]byte{0x09}).readTrimmedInt64("int")
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))

	_, err = newCursor(appendTrimmedInt64(nil, -1)).readCount("count", 10)
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))

	_, err = newCursor(appendTrimmedInt64(nil, math.MaxUint32+1)).readUint32("u32")
	require.Equal(t, ERR_OUT_OF_RANGE, mustCodecCode(t, err))

	_, err = newCursor(nil).readExact("neg", -1)
	require.Equal(t, ERR_BAD_LENGTH, mustCodecCode(t, err))

	_, err = newCursor([]byte{0x02, 0xaa}).readFixedLenValue("fixed", 1)
	require.Equal(t, ERR_BAD_LENGTH, mustCodecCode(t, err))

	_, err = newCursor([]byte{0x00}).readSingleByteLenValue("min", 1, 5)
	require.Equal(t, ERR_CAP_EXCEEDED, mustCodecCode(t, err))
}

func TestTrimmedInt64(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x00}, appendTrimmedInt64(nil, 0))
	require.Equal(t, []byte{0x02, 0x01, 0x00}, appendTrimmedInt64(nil, 256))
	neg := appendTrimmedInt64(nil, -1)
	require.Len(t, neg, 9)
	require.Equal(t, byte(8), neg[0])

	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.Int64().Draw(rt, "v")
		cur := newCursor(appendTrimmedInt64(nil, v))
		got, err := cur.readTrimmedInt64("v")
		if err != nil {
			rt.Fatalf("read: %v", err)
		}
		if got != v || cur.remaining() != 0 {
			rt.Fatalf("got %d, want %d", got, v)
		}
	})
}

func TestErrors_Format(t *testing.T) {
	require.Equal(t, "ERR_BAD_HEX", (&CodecError{Code: ERR_BAD_HEX}).Error())
	require.Equal(t, "ERR_BAD_HEX: path", (&CodecError{Code: ERR_BAD_HEX, Field: "path"}).Error())
	require.Equal(t, "ERR_BAD_HEX: odd", (&CodecError{Code: ERR_BAD_HEX, Msg: "odd"}).Error())
	require.Equal(t, "ERR_BAD_HEX: path: odd", codecErr(ERR_BAD_HEX, "path", "odd").Error())

	wrapped := fmt.Errorf("decoding: %w", codecErr(ERR_SHORT_BUFFER, "x", "y"))
	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, ERR_SHORT_BUFFER, code)
	_, ok = CodeOf(fmt.Errorf("plain"))
	require.False(t, ok)

	require.Equal(t, "bad proof of work", (&ValidationError{Reason: REJECT_BAD_POW}).Error())
	rej := fmt.Errorf("vtb: %w", reject(REJECT_NOT_IN_BLOCK, "root %s", "ab"))
	require.Equal(t, "vtb: not in block: root ab", rej.Error())
	require.Equal(t, REJECT_NOT_IN_BLOCK, mustReason(t, rej))
	_, ok = ReasonOf(wrapped)
	require.False(t, ok)
}

func TestCoin(t *testing.T) {
	require.Equal(t, "1.50000000", Coin(150_000_000).String())
	require.Equal(t, "-0.00000001", Coin(-1).String())
	require.Equal(t, "-92233720368.54775808", Coin(math.MinInt64).String())

	sum, err := Coin(2).Add(3)
	require.NoError(t, err)
	require.Equal(t, Coin(5), sum)
	_, err = Coin(math.MaxInt64).Add(1)
	require.ErrorIs(t, err, ErrCoinOverflow)
	_, err = Coin(math.MinInt64).Add(-1)
	require.ErrorIs(t, err, ErrCoinOverflow)

	diff, err := Coin(2).Sub(5)
	require.NoError(t, err)
	require.Equal(t, Coin(-3), diff)
	_, err = Coin(math.MinInt64).Sub(1)
	require.ErrorIs(t, err, ErrCoinOverflow)
	_, err = Coin(math.MaxInt64).Sub(-1)
	require.ErrorIs(t, err, ErrCoinOverflow)
}

func TestHashes(t *testing.T) {
	var lo, hi Sha256Hash
	lo[0] = 0xff
	hi[SHA256_HASH_BYTES-1] = 0x01
	require.Equal(t, -1, lo.Cmp(hi))
	require.Equal(t, 1, hi.Cmp(lo))
	require.Zero(t, hi.Cmp(hi))

	require.Len(t, hi.Trim(40), SHA256_HASH_BYTES)
	require.Equal(t, []byte{0xff, 0x00}, lo.Trim(2))

	_, err := NewSha256Hash(make([]byte, 31))
	require.Equal(t, ERR_BAD_LENGTH, mustCodecCode(t, err))
	_, err = NewVBlakeHash(make([]byte, 32))
	require.Equal(t, ERR_BAD_LENGTH, mustCodecCode(t, err))

	raw := make([]byte, VBLAKE_HASH_BYTES)
	for i := range raw {
		raw[i] = byte(i)
	}
	v, err := NewVBlakeHash(raw)
	require.NoError(t, err)
	prev := v.TrimPrevBlock()
	ks := v.TrimKeystone()
	require.Equal(t, raw[VBLAKE_HASH_BYTES-VBK_PREV_BLOCK_BYTES:], prev[:])
	require.Equal(t, raw[VBLAKE_HASH_BYTES-VBK_KEYSTONE_BYTES:], ks[:])
	require.EqualValues(t, 0x17, v.Big().Uint64()&0xff)
}
