package consensus

import (
	"bytes"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// POP_MARKER precedes the descriptor of a fragmented payload.
var POP_MARKER = []byte{0x92, 0x7A, 0x59}

const MAX_FRAGMENT_CHUNKS = 15

// chunkSpan is a half-open byte range of the scanned buffer.
type chunkSpan struct {
	start, end int
}

// Contains reports whether payload occurs in tx, either verbatim or
// reassembled from a fragment descriptor.
func Contains(tx, payload []byte) bool {
	if bytes.Contains(tx, payload) {
		return true
	}
	for i := 0; i+len(POP_MARKER) <= len(tx); i++ {
		if !bytes.Equal(tx[i:i+len(POP_MARKER)], POP_MARKER) {
			continue
		}
		spans, err := tryParseDescriptor(tx, i, len(payload)).Unpack()
		if err != nil {
			log.Tracef("fragment descriptor at %d: %v", i, err)
			continue
		}
		if reassembledEquals(tx, spans, payload) {
			return true
		}
	}
	return false
}

func reassembledEquals(tx []byte, spans []chunkSpan, payload []byte) bool {
	off := 0
	for _, s := range spans {
		n := s.end - s.start
		if !bytes.Equal(tx[s.start:s.end], payload[off:off+n]) {
			return false
		}
		off += n
	}
	return off == len(payload)
}

// tryParseDescriptor decodes the descriptor following the marker at
// markerPos and resolves it to buffer spans in payload order.
//
// Descriptor byte: bits 7..4 chunk count, bits 3..2 offset width
// (4, 8, 12 or 16 bits), bits 1..0 length width (4, 5, 6 or 7 bits). The
// packed entries follow MSB-first. Every entry has an offset and all but
// the last have a length; the last length is whatever the payload still
// needs. Entries are stored in reverse buffer order.
func tryParseDescriptor(tx []byte, markerPos, payloadLen int) fn.Result[[]chunkSpan] {
	descPos := markerPos + len(POP_MARKER)
	if descPos >= len(tx) {
		return fn.Errf[[]chunkSpan]("descriptor byte past end of buffer")
	}
	d := tx[descPos]
	count := int(d >> 4)
	if count == 0 {
		return fn.Errf[[]chunkSpan]("zero chunk count")
	}
	offBits := 4 * (int(d>>2&0x3) + 1)
	lenBits := 4 + int(d&0x3)

	br := bitReader{b: tx[descPos+1:]}
	offsets := make([]int, count)
	lengths := make([]int, count)
	used := 0
	for k := 0; k < count; k++ {
		off, ok := br.read(offBits)
		if !ok {
			return fn.Errf[[]chunkSpan]("entry %d offset past end of buffer", k)
		}
		offsets[k] = off
		if k == count-1 {
			break
		}
		n, ok := br.read(lenBits)
		if !ok {
			return fn.Errf[[]chunkSpan]("entry %d length past end of buffer", k)
		}
		lengths[k] = n
		used += n
	}
	last := payloadLen - used
	if last < 0 {
		return fn.Errf[[]chunkSpan]("chunk lengths %d exceed payload length %d", used, payloadLen)
	}
	lengths[count-1] = last

	spans := make([]chunkSpan, 0, count)
	pos := 0
	for k := count - 1; k >= 0; k-- {
		pos += offsets[k]
		end := pos + lengths[k]
		if end > len(tx) {
			return fn.Errf[[]chunkSpan]("chunk [%d, %d) past end of buffer %d", pos, end, len(tx))
		}
		spans = append(spans, chunkSpan{start: pos, end: end})
		pos = end
	}
	return fn.Ok(spans)
}

// bitReader reads big-endian bit fields MSB-first.
type bitReader struct {
	b   []byte
	bit int
}

func (r *bitReader) read(n int) (int, bool) {
	if r.bit+n > 8*len(r.b) {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		byt := r.b[(r.bit+i)/8]
		v = v<<1 | int(byt>>(7-uint((r.bit+i)%8))&1)
	}
	r.bit += n
	return v, true
}

type bitWriter struct {
	b   []byte
	bit int
}

func (w *bitWriter) write(v, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.bit%8 == 0 {
			w.b = append(w.b, 0)
		}
		if (v>>uint(i))&1 == 1 {
			w.b[len(w.b)-1] |= 0x80 >> uint(w.bit%8)
		}
		w.bit++
	}
}

// Chunk places Len payload bytes after Skip filler bytes.
type Chunk struct {
	Skip int
	Len  int
}

// SplitPayload lays payload out as chunks in buffer order, zero filler in
// the gaps, followed by the marker and a descriptor using the narrowest
// widths that fit. The result satisfies Contains(result, payload).
func SplitPayload(payload []byte, chunks []Chunk) ([]byte, error) {
	n := len(chunks)
	if n == 0 || n > MAX_FRAGMENT_CHUNKS {
		return nil, codecErr(ERR_OUT_OF_RANGE, "chunks", "chunk count %d outside [1, %d]", n, MAX_FRAGMENT_CHUNKS)
	}
	total := 0
	maxSkip, maxLen := 0, 0
	for i, c := range chunks {
		if c.Skip < 0 || c.Len < 0 {
			return nil, codecErr(ERR_OUT_OF_RANGE, "chunks", "chunk %d has negative field", i)
		}
		total += c.Len
		maxSkip = max(maxSkip, c.Skip)
		// The first chunk in buffer order is the last packed entry; its
		// length is implied.
		if i > 0 {
			maxLen = max(maxLen, c.Len)
		}
	}
	if total != len(payload) {
		return nil, codecErr(ERR_BAD_LENGTH, "chunks", "chunk lengths sum to %d, payload is %d", total, len(payload))
	}
	offSel := 0
	for offSel < 4 && maxSkip >= 1<<(4*(offSel+1)) {
		offSel++
	}
	lenSel := 0
	for lenSel < 4 && maxLen >= 1<<(4+lenSel) {
		lenSel++
	}
	if offSel == 4 || lenSel == 4 {
		return nil, codecErr(ERR_OUT_OF_RANGE, "chunks", "skip %d or length %d does not fit a descriptor", maxSkip, maxLen)
	}

	var out []byte
	off := 0
	for _, c := range chunks {
		out = append(out, make([]byte, c.Skip)...)
		out = append(out, payload[off:off+c.Len]...)
		off += c.Len
	}
	out = append(out, POP_MARKER...)
	// #nosec G115 -- every field is range-checked above.
	out = append(out, byte(n<<4|offSel<<2|lenSel))

	w := bitWriter{}
	for k := 0; k < n; k++ {
		c := chunks[n-1-k]
		w.write(c.Skip, 4*(offSel+1))
		if k < n-1 {
			w.write(c.Len, 4+lenSel)
		}
	}
	return append(out, w.b...), nil
}
