package consensus

// The var-length prefix is one byte giving the width of the big-endian
// length that follows, then the length itself. Encoders always emit the
// minimal non-empty width, so zero is written as 01 00.

// AppendVarLen appends the var-length prefix for n to dst.
func AppendVarLen(dst []byte, n uint64) []byte {
	b := trimmedBytes(n)
	dst = append(dst, byte(len(b)))
	return append(dst, b...)
}

// EncodeVarLen returns the var-length prefix for n. For append-style usage
// see AppendVarLen.
func EncodeVarLen(n uint64) []byte {
	return AppendVarLen(nil, n)
}

// DecodeVarLen decodes one var-length prefix from the front of buf and
// returns the value and the number of bytes consumed. Widths above
// MAX_VARLEN_WIDTH are rejected.
func DecodeVarLen(buf []byte) (uint64, int, error) {
	cur := newCursor(buf)
	width, err := cur.readU8("varlen")
	if err != nil {
		return 0, 0, err
	}
	if width > MAX_VARLEN_WIDTH {
		return 0, 0, codecErr(ERR_CAP_EXCEEDED, "varlen", "length width %d exceeds %d", width, MAX_VARLEN_WIDTH)
	}
	raw, err := cur.readExact("varlen", int(width))
	if err != nil {
		return 0, 0, err
	}
	return beUint64(raw), cur.pos, nil
}

// trimmedBytes returns the minimal big-endian encoding of v, at least one
// byte long.
func trimmedBytes(v uint64) []byte {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	start := 0
	for start < 7 && buf[start] == 0 {
		start++
	}
	return append([]byte(nil), buf[start:]...)
}
