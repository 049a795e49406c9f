package consensus

import "encoding/binary"

func appendU16be(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func appendU32be(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// appendSingleByteLenValue writes len(v) as one byte followed by v. Callers
// guarantee len(v) < 256.
func appendSingleByteLenValue(dst []byte, v []byte) []byte {
	dst = append(dst, byte(len(v)))
	return append(dst, v...)
}

// appendVarLenValue writes the var-length prefix for len(v) followed by v.
func appendVarLenValue(dst []byte, v []byte) []byte {
	dst = AppendVarLen(dst, uint64(len(v)))
	return append(dst, v...)
}

// appendTrimmedInt64 writes v as a single-byte-length minimal big-endian
// integer. Negative values always take eight bytes.
func appendTrimmedInt64(dst []byte, v int64) []byte {
	// #nosec G115 -- two's complement is the wire form for negative values.
	return appendSingleByteLenValue(dst, trimmedBytes(uint64(v)))
}

func appendCount(dst []byte, n int) []byte {
	return appendTrimmedInt64(dst, int64(n))
}

func appendU32le(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}
