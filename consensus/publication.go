package consensus

// Publication ties a transaction to the VeriBlock block that contains it.
// Context lists ancestors of ContainingBlock, oldest first, so that
// Context followed by ContainingBlock is a contiguous chain.
type Publication[T Transaction] struct {
	Transaction     T
	MerklePath      *VbkMerklePath
	ContainingBlock *VbkBlock
	Context         []*VbkBlock
}

// VbkPublication (VTB) carries a PoP transaction that endorses a
// VeriBlock block in Bitcoin.
type VbkPublication = Publication[*PopTx]

// AltPublication (ATV) carries a standard transaction whose data endorses
// an altchain block in VeriBlock.
type AltPublication = Publication[*StandardTx]

// NewPublication checks the context cap and builds a publication.
func NewPublication[T Transaction](tx T, path *VbkMerklePath, containing *VbkBlock, context []*VbkBlock) (*Publication[T], error) {
	if len(context) > MAX_PUBLICATION_CONTEXT {
		return nil, codecErr(ERR_CAP_EXCEEDED, "publication context", "%d blocks exceed %d", len(context), MAX_PUBLICATION_CONTEXT)
	}
	if err := checkPublicationComponents(path, containing, context); err != nil {
		return nil, err
	}
	return &Publication[T]{Transaction: tx, MerklePath: path, ContainingBlock: containing, Context: context}, nil
}

func checkPublicationComponents(path *VbkMerklePath, containing *VbkBlock, context []*VbkBlock) error {
	switch {
	case path == nil:
		return codecErr(ERR_OUT_OF_RANGE, "vbk merkle path", "missing")
	case containing == nil:
		return codecErr(ERR_OUT_OF_RANGE, "containing block", "missing")
	}
	for i, b := range context {
		if b == nil {
			return codecErr(ERR_OUT_OF_RANGE, "publication context", "block %d missing", i)
		}
	}
	return nil
}

// Chain returns Context followed by ContainingBlock.
func (p *Publication[T]) Chain() []*VbkBlock {
	out := make([]*VbkBlock, 0, len(p.Context)+1)
	out = append(out, p.Context...)
	return append(out, p.ContainingBlock)
}

// ID identifies the publication by the hash of its stream form.
func (p *Publication[T]) ID() Sha256Hash {
	return sha256Single(p.Encode())
}

// Encode returns the stream form: transaction, merkle path, containing
// block, context count and context blocks.
func (p *Publication[T]) Encode() []byte {
	out := p.Transaction.Encode()
	out = appendVbkMerklePath(out, p.MerklePath)
	out = appendVbkBlock(out, p.ContainingBlock)
	out = appendCount(out, len(p.Context))
	for _, b := range p.Context {
		out = appendVbkBlock(out, b)
	}
	return out
}

// DecodeVbkPublication decodes a VTB and rejects trailing bytes.
func DecodeVbkPublication(raw []byte) (*VbkPublication, error) {
	return decodePublication(raw, "vbk publication", readPopTx)
}

// DecodeAltPublication decodes an ATV and rejects trailing bytes.
func DecodeAltPublication(raw []byte) (*AltPublication, error) {
	return decodePublication(raw, "alt publication", readStandardTx)
}

func decodePublication[T Transaction](raw []byte, field string, readTx func(*cursor, string) (T, error)) (*Publication[T], error) {
	cur := newCursor(raw)
	tx, err := readTx(cur, field+" tx")
	if err != nil {
		return nil, err
	}
	path, err := readVbkMerklePath(cur, field+" merkle path")
	if err != nil {
		return nil, err
	}
	containing, err := readVbkBlock(cur, field+" containing block")
	if err != nil {
		return nil, err
	}
	context, err := readVbkBlocks(cur, field+" context", MAX_PUBLICATION_CONTEXT)
	if err != nil {
		return nil, err
	}
	if err := cur.done(field); err != nil {
		return nil, err
	}
	return &Publication[T]{Transaction: tx, MerklePath: path, ContainingBlock: containing, Context: context}, nil
}
