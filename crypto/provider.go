package crypto

// Provider is the narrow crypto interface used by consensus validation.
// Key management lives elsewhere; consensus only ever asks these two
// questions.
type Provider interface {
	// VerifySignature reports whether sig is a valid signature by pubkey
	// over message.
	VerifySignature(message, sig, pubkey []byte) bool

	// IsDerivedFrom reports whether address is the address derived from
	// pubkey.
	IsDerivedFrom(address string, pubkey []byte) bool
}
