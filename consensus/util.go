package consensus

// maxIntAsUint64 returns the maximum value representable by the built-in int type, expressed as a uint64.
// The result is platform-dependent (e.g., 2^31-1 on 32-bit systems, 2^63-1 on 64-bit systems).
func maxIntAsUint64() uint64 {
	return uint64(^uint(0) >> 1)
}

// toIntLen converts a decoded length to int, failing with ERR_OUT_OF_RANGE
// when it does not fit.
func toIntLen(v uint64, field string) (int, error) {
	if v > maxIntAsUint64() {
		return 0, codecErr(ERR_OUT_OF_RANGE, field, "length %d overflows int", v)
	}
	// #nosec G115 -- v is bounded to int by maxIntAsUint64 above.
	return int(v), nil
}
