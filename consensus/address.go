package consensus

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/VeriBlock/nodecore-sub002/crypto"
)

// AddressKind is the wire type tag of an address.
type AddressKind byte

const (
	ADDRESS_STANDARD AddressKind = 0x01
	ADDRESS_MULTISIG AddressKind = 0x03
)

const (
	ADDRESS_TEXT_CHARS     = 30
	MULTISIG_ENDING        = '0'
	base58Alphabet         = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	multisigChecksumOffset = crypto.ADDRESS_BODY_CHARS
)

func (k AddressKind) String() string {
	switch k {
	case ADDRESS_STANDARD:
		return "standard"
	case ADDRESS_MULTISIG:
		return "multisig"
	}
	return "unknown"
}

// Address is a validated VeriBlock address in its text form.
type Address struct {
	Kind AddressKind
	Text string
}

// ParseAddress validates text and classifies it. A trailing '0' marks a
// multisig address; anything else must be a standard address.
func ParseAddress(text string) (Address, error) {
	if len(text) != ADDRESS_TEXT_CHARS {
		return Address{}, codecErr(ERR_BAD_ADDRESS, "address", "length %d, want %d", len(text), ADDRESS_TEXT_CHARS)
	}
	if text[0] != crypto.ADDRESS_PREFIX {
		return Address{}, codecErr(ERR_BAD_ADDRESS, "address", "prefix %q", text[0])
	}
	if text[len(text)-1] == MULTISIG_ENDING {
		return parseMultisig(text)
	}
	if !isBase58(text) {
		return Address{}, codecErr(ERR_BAD_ADDRESS, "address", "non-base58 character in %q", text)
	}
	body := text[:crypto.ADDRESS_BODY_CHARS]
	if crypto.AddressChecksum(body, crypto.STANDARD_CHECKSUM_CHARS) != text[crypto.ADDRESS_BODY_CHARS:] {
		return Address{}, codecErr(ERR_BAD_ADDRESS, "address", "checksum mismatch in %q", text)
	}
	return Address{Kind: ADDRESS_STANDARD, Text: text}, nil
}

func parseMultisig(text string) (Address, error) {
	if !isBase58(text[:len(text)-1]) {
		return Address{}, codecErr(ERR_BAD_ADDRESS, "address", "non-base59 character in %q", text)
	}
	body := text[:crypto.ADDRESS_BODY_CHARS]
	sum := text[multisigChecksumOffset : multisigChecksumOffset+crypto.MULTISIG_CHECKSUM_CHARS]
	if crypto.AddressChecksum(body, crypto.MULTISIG_CHECKSUM_CHARS) != sum {
		return Address{}, codecErr(ERR_BAD_ADDRESS, "address", "checksum mismatch in %q", text)
	}
	return Address{Kind: ADDRESS_MULTISIG, Text: text}, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(text string) Address {
	a, err := ParseAddress(text)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromPublicKey returns the standard address derived from pub.
func AddressFromPublicKey(pub []byte) Address {
	return Address{Kind: ADDRESS_STANDARD, Text: crypto.DeriveAddress(pub)}
}

// IsDerivedFrom asks p whether a is the standard address of pub. Multisig
// addresses are never derived from a single key.
func (a Address) IsDerivedFrom(p crypto.Provider, pub []byte) bool {
	return a.Kind == ADDRESS_STANDARD && p.IsDerivedFrom(a.Text, pub)
}

func (a Address) String() string {
	return a.Text
}

// Bytes returns the decoded address body that is carried on the wire.
func (a Address) Bytes() []byte {
	return decodeAddressText(a.Kind, a.Text)
}

// PoPBytes returns the 16 bytes that identify the endorser inside a PoP
// payload: the tail of the decoded data portion, left-padded with zeros.
func (a Address) PoPBytes() [ADDRESS_POP_BYTES]byte {
	var out [ADDRESS_POP_BYTES]byte
	data := decodeAddressText(a.Kind, a.Text[:crypto.ADDRESS_BODY_CHARS])
	if len(data) > ADDRESS_POP_BYTES {
		data = data[len(data)-ADDRESS_POP_BYTES:]
	}
	copy(out[ADDRESS_POP_BYTES-len(data):], data)
	return out
}

func decodeAddressText(kind AddressKind, text string) []byte {
	if kind == ADDRESS_MULTISIG {
		b, _ := base59Decode(text)
		return b
	}
	return base58.Decode(text)
}

func encodeAddressText(kind AddressKind, body []byte) string {
	if kind == ADDRESS_MULTISIG {
		return base59Encode(body)
	}
	return base58.Encode(body)
}

func isBase58(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(base58Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

func appendAddress(dst []byte, a Address) []byte {
	dst = append(dst, byte(a.Kind))
	return appendSingleByteLenValue(dst, a.Bytes())
}

func readAddress(cur *cursor, field string) (Address, error) {
	tag, err := cur.readU8(field)
	if err != nil {
		return Address{}, err
	}
	kind := AddressKind(tag)
	if kind != ADDRESS_STANDARD && kind != ADDRESS_MULTISIG {
		return Address{}, codecErr(ERR_BAD_TYPE_TAG, field, "address type 0x%02x", tag)
	}
	body, err := cur.readSingleByteLenValue(field, 1, MAX_ADDRESS_BYTES)
	if err != nil {
		return Address{}, err
	}
	a, err := ParseAddress(encodeAddressText(kind, body))
	if err != nil {
		return Address{}, err
	}
	if a.Kind != kind {
		return Address{}, codecErr(ERR_BAD_TYPE_TAG, field, "tag %s for %s address", kind, a.Kind)
	}
	return a, nil
}
