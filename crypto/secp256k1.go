package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// x509Secp256k1Prefix is the SubjectPublicKeyInfo header that precedes an
// uncompressed secp256k1 point in an 88-byte X.509 encoded key.
var x509Secp256k1Prefix, _ = hex.DecodeString("3056301006072a8648ce3d020106052b8104000a034200")

// Secp256k1Provider verifies ECDSA signatures over sha256(message) and
// derives standard addresses.
type Secp256k1Provider struct{}

var _ Provider = Secp256k1Provider{}

func (Secp256k1Provider) VerifySignature(message, sig, pubkey []byte) bool {
	pub, err := ParsePublicKey(pubkey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(message)
	return parsed.Verify(digest[:], pub)
}

func (Secp256k1Provider) IsDerivedFrom(address string, pubkey []byte) bool {
	return DeriveAddress(pubkey) == address
}

// ParsePublicKey accepts SEC compressed, SEC uncompressed and 88-byte X.509
// encoded secp256k1 keys.
func ParsePublicKey(pubkey []byte) (*btcec.PublicKey, error) {
	if len(pubkey) == len(x509Secp256k1Prefix)+65 && bytes.HasPrefix(pubkey, x509Secp256k1Prefix) {
		pubkey = pubkey[len(x509Secp256k1Prefix):]
	}
	return btcec.ParsePubKey(pubkey)
}

// SignMessage signs sha256(message) with priv and returns the DER
// signature. It exists for wallets and test fixtures; consensus never signs.
func SignMessage(priv *btcec.PrivateKey, message []byte) []byte {
	digest := sha256.Sum256(message)
	return ecdsa.Sign(priv, digest[:]).Serialize()
}

// EncodeX509PublicKey wraps pub in the 88-byte X.509 form.
func EncodeX509PublicKey(pub *btcec.PublicKey) []byte {
	out := make([]byte, 0, len(x509Secp256k1Prefix)+65)
	out = append(out, x509Secp256k1Prefix...)
	return append(out, pub.SerializeUncompressed()...)
}
