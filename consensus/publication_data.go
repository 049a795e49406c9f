package consensus

// PublicationData is the altchain blob carried in an ATV's data field.
type PublicationData struct {
	Identifier  int64
	Header      []byte
	PayoutInfo  []byte
	ContextInfo []byte
}

// Encode returns identifier, header, payout info and context info.
func (d *PublicationData) Encode() []byte {
	out := appendTrimmedInt64(nil, d.Identifier)
	out = appendVarLenValue(out, d.Header)
	out = appendVarLenValue(out, d.PayoutInfo)
	return appendVarLenValue(out, d.ContextInfo)
}

// DecodePublicationData decodes raw and rejects trailing bytes. Empty
// byte fields decode as nil.
func DecodePublicationData(raw []byte) (*PublicationData, error) {
	if len(raw) > MAX_PUBDATA_BYTES {
		return nil, codecErr(ERR_CAP_EXCEEDED, "publication data", "%d bytes exceed %d", len(raw), MAX_PUBDATA_BYTES)
	}
	cur := newCursor(raw)
	var (
		d   PublicationData
		err error
	)
	if d.Identifier, err = cur.readTrimmedInt64("identifier"); err != nil {
		return nil, err
	}
	if d.Header, err = cur.readVarLenValue("header", MAX_PUBDATA_HEADER_BYTES); err != nil {
		return nil, err
	}
	if d.PayoutInfo, err = cur.readVarLenValue("payout info", MAX_PUBDATA_PAYOUT_BYTES); err != nil {
		return nil, err
	}
	if d.ContextInfo, err = cur.readVarLenValue("context info", MAX_PUBDATA_CONTEXT_BYTES); err != nil {
		return nil, err
	}
	if err := cur.done("publication data"); err != nil {
		return nil, err
	}
	return &d, nil
}
