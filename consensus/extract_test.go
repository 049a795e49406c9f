package consensus

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex %q: %v", s, err)
	}
	return b
}

// fragmentedVector places "AB" at 7-8, "CD" at 10-11 and "EF" at 15-16
// behind a three-chunk descriptor with 4-bit offsets and lengths.
func fragmentedVector(t *testing.T) []byte {
	buf := mustHex(t, "927a5930321270")
	buf = append(buf, make([]byte, 17-len(buf))...)
	copy(buf[7:], "AB")
	copy(buf[10:], "CD")
	copy(buf[15:], "EF")
	return buf
}

func TestContains_Contiguous(t *testing.T) {
	tx := []byte("xxxxPAYLOADyyyy")
	require.True(t, Contains(tx, []byte("PAYLOAD")))
	require.True(t, Contains(tx, nil))
	require.False(t, Contains(tx, []byte("PAYLOADZ")))
}

func TestContains_FragmentedVector(t *testing.T) {
	buf := fragmentedVector(t)
	require.False(t, bytes.Contains(buf, []byte("ABCDEF")))
	require.True(t, Contains(buf, []byte("ABCDEF")))
	require.False(t, Contains(buf, []byte("ABCDEG")))

	spans, err := tryParseDescriptor(buf, 0, 6).Unpack()
	require.NoError(t, err)
	require.Equal(t, []chunkSpan{{7, 9}, {10, 12}, {15, 17}}, spans)

	// The implied length belongs to the last descriptor entry, which is
	// the first chunk walked, so a shorter payload shortens that chunk and
	// shifts the rest.
	spans, err = tryParseDescriptor(buf, 0, 5).Unpack()
	require.NoError(t, err)
	require.Equal(t, []chunkSpan{{7, 8}, {9, 11}, {14, 16}}, spans)
	require.True(t, Contains(buf, []byte{'A', 0, 'C', 0, 'E'}))
	require.False(t, Contains(buf, []byte("ABCDE")))
}

func TestContains_ShortFirstChunk(t *testing.T) {
	buf, err := SplitPayload([]byte("ACDEF"), []Chunk{{Skip: 7, Len: 1}, {Skip: 1, Len: 2}, {Skip: 3, Len: 2}})
	require.NoError(t, err)
	require.False(t, bytes.Contains(buf, []byte("ACDEF")))
	require.True(t, Contains(buf, []byte("ACDEF")))
	require.False(t, Contains(buf, []byte("ACDEG")))
}

func TestContains_MalformedFirstMarker(t *testing.T) {
	buf := mustHex(t, "927a5900"+"927a59303212b0")
	buf = append(buf, make([]byte, 21-len(buf))...)
	copy(buf[11:], "AB")
	copy(buf[14:], "CD")
	copy(buf[19:], "EF")

	require.True(t, tryParseDescriptor(buf, 0, 6).IsErr())
	require.True(t, Contains(buf, []byte("ABCDEF")))
}

func TestTryParseDescriptor_Errors(t *testing.T) {
	cases := []struct {
		name       string
		buf        string
		payloadLen int
	}{
		{"no descriptor byte", "927a59", 6},
		{"zero count", "927a5900", 6},
		{"entries past end", "927a5930", 6},
		{"lengths exceed payload", "927a59200f00", 6},
		{"chunk past end", "927a5910f0", 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, tryParseDescriptor(mustHex(t, tc.buf), 0, tc.payloadLen).IsErr())
		})
	}
}

func TestSplitPayload_Vector(t *testing.T) {
	buf, err := SplitPayload([]byte("ABCDEF"), []Chunk{{Skip: 7, Len: 2}, {Skip: 1, Len: 2}, {Skip: 3, Len: 2}})
	require.NoError(t, err)
	want := mustHex(t, "00000000000000"+"4142"+"00"+"4344"+"000000"+"4546"+"927a59"+"30"+"321270")
	require.Equal(t, want, buf)
	require.True(t, Contains(buf, []byte("ABCDEF")))
}

func TestSplitPayload_Errors(t *testing.T) {
	p := []byte("ABCDEF")
	cases := []struct {
		name   string
		chunks []Chunk
	}{
		{"no chunks", nil},
		{"sixteen chunks", make([]Chunk, 16)},
		{"wrong total", []Chunk{{Len: 5}}},
		{"negative skip", []Chunk{{Skip: -1, Len: 6}}},
		{"skip too wide", []Chunk{{Skip: 1 << 16, Len: 6}}},
		{"length too wide", []Chunk{{Len: 0}, {Len: 128}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := p
			if tc.name == "length too wide" {
				payload = make([]byte, 128)
			}
			_, err := SplitPayload(payload, tc.chunks)
			require.Error(t, err)
		})
	}
}

func drawChunks(rt *rapid.T) ([]byte, []Chunk) {
	n := rapid.IntRange(1, MAX_FRAGMENT_CHUNKS).Draw(rt, "chunks")
	chunks := make([]Chunk, n)
	total := 0
	for i := range chunks {
		chunks[i].Skip = rapid.IntRange(0, 300).Draw(rt, "skip")
		chunks[i].Len = rapid.IntRange(0, 20).Draw(rt, "len")
		total += chunks[i].Len
	}
	payload := rapid.SliceOfN(rapid.Byte(), total, total).Draw(rt, "payload")
	return payload, chunks
}

func chunkBytes(chunks []Chunk) int {
	n := 0
	for _, c := range chunks {
		n += c.Skip + c.Len
	}
	return n
}

func TestSplitPayload_ReassemblesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload, chunks := drawChunks(rt)
		buf, err := SplitPayload(payload, chunks)
		if err != nil {
			rt.Fatalf("SplitPayload: %v", err)
		}
		markerAt := chunkBytes(chunks)
		spans, err := tryParseDescriptor(buf, markerAt, len(payload)).Unpack()
		if err != nil {
			rt.Fatalf("descriptor at %d: %v", markerAt, err)
		}
		if !reassembledEquals(buf, spans, payload) {
			rt.Fatalf("reassembly mismatch")
		}
		if !Contains(buf, payload) {
			rt.Fatalf("payload not found")
		}
	})
}

// Marker occurrences that touch or overlap the real one must not hide it.
func TestContains_AdjacentMarkersProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload, chunks := drawChunks(rt)
		buf, err := SplitPayload(payload, chunks)
		if err != nil {
			rt.Fatalf("SplitPayload: %v", err)
		}
		markerAt := chunkBytes(chunks)

		var junk []byte
		for i := rapid.IntRange(1, 4).Draw(rt, "decoys"); i > 0; i-- {
			junk = append(junk, POP_MARKER...)
			if rapid.Bool().Draw(rt, "with descriptor") {
				junk = append(junk, rapid.Byte().Draw(rt, "descriptor"))
			}
		}
		out := append([]byte(nil), buf[:markerAt]...)
		out = append(out, junk...)
		out = append(out, buf[markerAt:]...)

		if !Contains(out, payload) {
			rt.Fatalf("payload hidden by decoys %x", junk)
		}
	})
}
