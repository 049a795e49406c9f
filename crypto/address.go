package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	ADDRESS_PREFIX          = 'V'
	ADDRESS_DATA_CHARS      = 24
	ADDRESS_BODY_CHARS      = 1 + ADDRESS_DATA_CHARS
	STANDARD_CHECKSUM_CHARS = 5
	MULTISIG_CHECKSUM_CHARS = 4
)

// DeriveAddress returns the standard address owned by pubkey: the prefix,
// 24 characters of the base58 key hash, then a checksum over those 25
// characters.
func DeriveAddress(pubkey []byte) string {
	keyHash := sha256.Sum256(pubkey)
	data := string(ADDRESS_PREFIX) + base58.Encode(keyHash[:])[:ADDRESS_DATA_CHARS]
	return data + AddressChecksum(data, STANDARD_CHECKSUM_CHARS)
}

// AddressChecksum returns the first n base58 characters of sha256(body).
func AddressChecksum(body string, n int) string {
	sum := sha256.Sum256([]byte(body))
	enc := base58.Encode(sum[:])
	if n > len(enc) {
		n = len(enc)
	}
	return enc[:n]
}
