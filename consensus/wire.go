package consensus

import "math"

type cursor struct {
	b   []byte
	pos int
}

// newCursor creates a cursor for reading from b with the initial read position set to 0.
func newCursor(b []byte) *cursor {
	return &cursor{b: b, pos: 0}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

// readExact returns the next n bytes without copying them.
func (c *cursor) readExact(field string, n int) ([]byte, error) {
	if n < 0 {
		return nil, codecErr(ERR_BAD_LENGTH, field, "negative length %d", n)
	}
	if c.remaining() < n {
		return nil, codecErr(ERR_SHORT_BUFFER, field, "need %d bytes, have %d", n, c.remaining())
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readU8(field string) (byte, error) {
	b, err := c.readExact(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readSingleByteLenValue reads a 1-byte length followed by that many bytes.
// The returned slice is a copy.
func (c *cursor) readSingleByteLenValue(field string, min, max int) ([]byte, error) {
	n, err := c.readU8(field)
	if err != nil {
		return nil, err
	}
	if int(n) < min || int(n) > max {
		return nil, codecErr(ERR_CAP_EXCEEDED, field, "length %d outside [%d, %d]", n, min, max)
	}
	v, err := c.readExact(field, int(n))
	if err != nil {
		return nil, err
	}
	return clone(v), nil
}

// readFixedLenValue reads a single-byte-length value whose length must be
// exactly want.
func (c *cursor) readFixedLenValue(field string, want int) ([]byte, error) {
	n, err := c.readU8(field)
	if err != nil {
		return nil, err
	}
	if int(n) != want {
		return nil, codecErr(ERR_BAD_LENGTH, field, "length %d, want %d", n, want)
	}
	return c.readExact(field, want)
}

// readVarLenValue reads a var-length prefixed value and returns a copy.
func (c *cursor) readVarLenValue(field string, max int) ([]byte, error) {
	n, err := c.readVarLen(field, max)
	if err != nil {
		return nil, err
	}
	v, err := c.readExact(field, n)
	if err != nil {
		return nil, err
	}
	return clone(v), nil
}

// readVarLen reads only the var-length prefix and checks it against max.
func (c *cursor) readVarLen(field string, max int) (int, error) {
	width, err := c.readU8(field)
	if err != nil {
		return 0, err
	}
	if width > MAX_VARLEN_WIDTH {
		return 0, codecErr(ERR_CAP_EXCEEDED, field, "length width %d exceeds %d", width, MAX_VARLEN_WIDTH)
	}
	raw, err := c.readExact(field, int(width))
	if err != nil {
		return 0, err
	}
	n := beUint64(raw)
	if n > uint64(max) {
		return 0, codecErr(ERR_CAP_EXCEEDED, field, "length %d exceeds %d", n, max)
	}
	return toIntLen(n, field)
}

// readTrimmedInt64 reads a single-byte-length big-endian integer. Eight
// byte values are interpreted as two's complement.
func (c *cursor) readTrimmedInt64(field string) (int64, error) {
	width, err := c.readU8(field)
	if err != nil {
		return 0, err
	}
	if width > MAX_TRIMMED_WIDTH {
		return 0, codecErr(ERR_CAP_EXCEEDED, field, "integer width %d exceeds %d", width, MAX_TRIMMED_WIDTH)
	}
	raw, err := c.readExact(field, int(width))
	if err != nil {
		return 0, err
	}
	// #nosec G115 -- eight-byte values are two's complement by definition.
	return int64(beUint64(raw)), nil
}

// readCount reads a trimmed non-negative integer bounded by max.
func (c *cursor) readCount(field string, max int) (int, error) {
	v, err := c.readTrimmedInt64(field)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > int64(max) {
		return 0, codecErr(ERR_CAP_EXCEEDED, field, "count %d outside [0, %d]", v, max)
	}
	return int(v), nil
}

func (c *cursor) readUint32(field string) (uint32, error) {
	v, err := c.readTrimmedInt64(field)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, codecErr(ERR_OUT_OF_RANGE, field, "value %d does not fit uint32", v)
	}
	return uint32(v), nil
}

// done fails if any unread bytes are left.
func (c *cursor) done(field string) error {
	if c.remaining() != 0 {
		return codecErr(ERR_TRAILING_BYTES, field, "%d unread bytes", c.remaining())
	}
	return nil
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
