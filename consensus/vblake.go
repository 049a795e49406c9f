package consensus

import (
	"encoding/binary"
	"math/bits"
)

// vBlake is VeriBlock's header hash: a BLAKE2b-512 derivative with its own
// IV, round constants, sixteen rounds, a non-linear tail in the mixing
// function and a folded 24-byte output.

const vblakeBlockBytes = 128

var vblakeIV = [8]uint64{
	0x4BBF42C1F006AD9D, 0x5D11A8C3B5AEB12E, 0xA64AB78DC2774652, 0xC67595724658F253,
	0xB8864E79CB891E56, 0x12ED593E29FB41A1, 0xB1DA3AB63C60BAA8, 0x6D20E50C1F954DED,
}

var vblakeC = [16]uint64{
	0xA51B6A89D489E800, 0xD35B2E0E0B723800, 0xA47B39A2AE9F9000, 0x0C0EFA33E77E6488,
	0x4F452FEC309911EB, 0x3CFCC66F74E1022C, 0x4606AD364DC879DD, 0xBBA055B53D47C800,
	0x531655D90C59EB1B, 0xD1A00BA6DAE5B800, 0x2FE452DA9632463E, 0x98A7B5496226F800,
	0xBAFCD004F92CA000, 0x64A39957839525E7, 0xD859E6F081AAE000, 0x63D980597B560E6B,
}

// Rows 10..15 repeat rows 0..5.
var vblakeSigma = [16][16]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
	{11, 8, 12, 0, 5, 2, 15, 13, 10, 14, 3, 6, 7, 1, 9, 4},
	{7, 9, 3, 1, 13, 12, 11, 14, 2, 6, 5, 10, 4, 0, 15, 8},
	{9, 0, 5, 7, 2, 4, 10, 15, 14, 1, 11, 12, 6, 8, 3, 13},
	{2, 12, 6, 10, 0, 11, 8, 3, 4, 13, 7, 5, 15, 14, 1, 9},
	{12, 5, 1, 15, 14, 13, 4, 10, 0, 7, 6, 3, 9, 2, 8, 11},
	{13, 11, 7, 14, 12, 1, 3, 9, 5, 0, 15, 4, 8, 6, 2, 10},
	{6, 15, 14, 9, 11, 3, 0, 8, 12, 2, 13, 7, 1, 4, 10, 5},
	{10, 2, 8, 4, 7, 6, 1, 5, 15, 11, 9, 14, 3, 12, 13, 0},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
	{11, 8, 12, 0, 5, 2, 15, 13, 10, 14, 3, 6, 7, 1, 9, 4},
	{7, 9, 3, 1, 13, 12, 11, 14, 2, 6, 5, 10, 4, 0, 15, 8},
	{9, 0, 5, 7, 2, 4, 10, 15, 14, 1, 11, 12, 6, 8, 3, 13},
	{2, 12, 6, 10, 0, 11, 8, 3, 4, 13, 7, 5, 15, 14, 1, 9},
}

func vblakeG(v *[16]uint64, a, b, c, d int, x, y, c1, c2 uint64) {
	v[a] = v[a] + v[b] + (x ^ c1)
	v[d] = bits.RotateLeft64(v[d]^v[a], -60)
	v[c] = v[c] + v[d]
	v[b] = bits.RotateLeft64(v[b]^v[c], -43)
	v[a] = v[a] + v[b] + (y ^ c2)
	v[d] = bits.RotateLeft64(v[d]^v[a], -5)
	v[c] = v[c] + v[d]
	v[b] = bits.RotateLeft64(v[b]^v[c], -18)

	va, vb, vc := v[a], v[b], v[c]
	v[d] ^= (^va & ^vb & ^vc) | (^va & vb & vc) | (va & ^vb & vc) | (va & vb & ^vc)
	va, vb, vc = v[a], v[b], v[c]
	v[d] ^= (^va & ^vb & vc) | (^va & vb & ^vc) | (va & ^vb & ^vc) | (va & vb & vc)
}

func vblakeCompress(h *[8]uint64, block *[vblakeBlockBytes]byte, counter uint64, last bool) {
	var v, m [16]uint64
	copy(v[:8], h[:])
	copy(v[8:], vblakeIV[:])
	v[12] ^= counter
	if last {
		v[14] = ^v[14]
	}
	for i := range m {
		m[i] = binary.LittleEndian.Uint64(block[8*i:])
	}
	for i := range vblakeSigma {
		s := &vblakeSigma[i]
		vblakeG(&v, 0, 4, 8, 12, m[s[1]], m[s[0]], vblakeC[s[1]], vblakeC[s[0]])
		vblakeG(&v, 1, 5, 9, 13, m[s[3]], m[s[2]], vblakeC[s[3]], vblakeC[s[2]])
		vblakeG(&v, 2, 6, 10, 14, m[s[5]], m[s[4]], vblakeC[s[5]], vblakeC[s[4]])
		vblakeG(&v, 3, 7, 11, 15, m[s[7]], m[s[6]], vblakeC[s[7]], vblakeC[s[6]])
		vblakeG(&v, 0, 5, 10, 15, m[s[9]], m[s[8]], vblakeC[s[9]], vblakeC[s[8]])
		vblakeG(&v, 1, 6, 11, 12, m[s[11]], m[s[10]], vblakeC[s[11]], vblakeC[s[10]])
		vblakeG(&v, 2, 7, 8, 13, m[s[13]], m[s[12]], vblakeC[s[13]], vblakeC[s[12]])
		vblakeG(&v, 3, 4, 9, 14, m[s[15]], m[s[14]], vblakeC[s[15]], vblakeC[s[14]])
	}
	for i := range h {
		h[i] ^= v[i] ^ v[i+8]
	}
	// Fold the eight words into the three that form the digest.
	h[0] ^= h[3] ^ h[6]
	h[1] ^= h[4] ^ h[7]
	h[2] ^= h[5]
}

func vblake(b []byte) VBlakeHash {
	h := vblakeIV
	h[0] ^= 0x01010000 ^ VBLAKE_HASH_BYTES

	var block [vblakeBlockBytes]byte
	var counter uint64
	for len(b) > vblakeBlockBytes {
		copy(block[:], b[:vblakeBlockBytes])
		counter += vblakeBlockBytes
		vblakeCompress(&h, &block, counter, false)
		b = b[vblakeBlockBytes:]
	}
	block = [vblakeBlockBytes]byte{}
	copy(block[:], b)
	counter += uint64(len(b))
	vblakeCompress(&h, &block, counter, true)

	var out VBlakeHash
	for i := range out {
		out[i] = byte(h[i/8] >> (8 * (i % 8)))
	}
	return out
}
