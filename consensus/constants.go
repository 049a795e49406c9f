package consensus

const (
	SHA256_HASH_BYTES     = 32
	VBLAKE_HASH_BYTES     = 24
	VBK_PREV_BLOCK_BYTES  = 12
	VBK_KEYSTONE_BYTES    = 9
	VBK_MERKLE_ROOT_BYTES = 16

	BTC_HEADER_BYTES = 80
	VBK_HEADER_BYTES = 64

	DEFAULT_KEYSTONE_INTERVAL = 20

	ADDRESS_POP_BYTES = 16
	POP_DATA_BYTES    = VBK_HEADER_BYTES + ADDRESS_POP_BYTES

	MAX_FUTURE_DRIFT_SECONDS = 300
)

// Decode caps. Every length read from the wire is checked against one of
// these before any buffer sized from it is allocated.
const (
	MAX_RAW_TX_BYTES        = 4_000_000
	MAX_MERKLE_LAYERS       = 40
	MAX_OUTPUTS             = 255
	MAX_POP_TX_CONTEXT      = 150_000
	MAX_PUBLICATION_CONTEXT = 15_000
	MAX_SIGNATURE_BYTES     = 72
	MAX_PUBKEY_BYTES        = 88
	MAX_ADDRESS_BYTES       = 30

	MAX_PUBDATA_HEADER_BYTES  = 1024
	MAX_PUBDATA_PAYOUT_BYTES  = 100
	MAX_PUBDATA_CONTEXT_BYTES = 10_000
	MAX_TX_DATA_BYTES         = 16 * 1024

	// Widths of the big-endian length that follows a var-length prefix and
	// of trimmed integers.
	MAX_VARLEN_WIDTH  = 4
	MAX_TRIMMED_WIDTH = 8

	MAX_MERKLE_PATH_BYTES = 5 + (1 + 5) + (1 + SHA256_HASH_BYTES) + 5 +
		MAX_MERKLE_LAYERS*(1+SHA256_HASH_BYTES)

	maxAddressEncoded = 2 + MAX_ADDRESS_BYTES
	maxCoinEncoded    = 1 + MAX_TRIMMED_WIDTH

	MAX_STANDARD_TX_EFFECTS_BYTES = 2 + maxAddressEncoded + maxCoinEncoded + 1 +
		MAX_OUTPUTS*(maxAddressEncoded+maxCoinEncoded) +
		(1 + MAX_TRIMMED_WIDTH) + (1 + MAX_VARLEN_WIDTH) + MAX_TX_DATA_BYTES

	MAX_POP_TX_EFFECTS_BYTES = 2 + maxAddressEncoded + (1 + VBK_HEADER_BYTES) +
		(1 + MAX_VARLEN_WIDTH) + MAX_RAW_TX_BYTES +
		(1 + MAX_VARLEN_WIDTH) + MAX_MERKLE_PATH_BYTES +
		(1 + BTC_HEADER_BYTES) +
		5 + MAX_POP_TX_CONTEXT*(1+BTC_HEADER_BYTES)

	MAX_PUBDATA_BYTES = (1 + MAX_TRIMMED_WIDTH) +
		(1 + MAX_VARLEN_WIDTH) + MAX_PUBDATA_HEADER_BYTES +
		(1 + MAX_VARLEN_WIDTH) + MAX_PUBDATA_PAYOUT_BYTES +
		(1 + MAX_VARLEN_WIDTH) + MAX_PUBDATA_CONTEXT_BYTES
)

// Transaction type tags.
const (
	TX_TYPE_STANDARD byte = 0x01
	TX_TYPE_POP      byte = 0x02
	TX_TYPE_MULTISIG byte = 0x03
)
