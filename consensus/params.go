package consensus

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// NetworkParams holds the per-network constants used by decoding and
// validation.
type NetworkParams struct {
	Name string

	// TxMagic is the replay-protection byte that prefixes transaction
	// effects. Mainnet transactions carry none.
	TxMagic fn.Option[byte]

	// BtcParams supplies the Bitcoin proof-of-work limit.
	BtcParams *chaincfg.Params

	// MinVbkDifficulty is the smallest decoded VeriBlock difficulty the
	// network accepts.
	MinVbkDifficulty *big.Int

	KeystoneInterval int32
}

var (
	MainNetParams = NetworkParams{
		Name:             "mainnet",
		TxMagic:          fn.None[byte](),
		BtcParams:        &chaincfg.MainNetParams,
		MinVbkDifficulty: big.NewInt(900_000_000_000),
		KeystoneInterval: DEFAULT_KEYSTONE_INTERVAL,
	}

	TestNetParams = NetworkParams{
		Name:             "testnet",
		TxMagic:          fn.Some[byte](0xAA),
		BtcParams:        &chaincfg.TestNet3Params,
		MinVbkDifficulty: big.NewInt(100_000_000),
		KeystoneInterval: DEFAULT_KEYSTONE_INTERVAL,
	}

	RegTestParams = NetworkParams{
		Name:             "regtest",
		TxMagic:          fn.Some[byte](0xBB),
		BtcParams:        &chaincfg.RegressionNetParams,
		MinVbkDifficulty: big.NewInt(1),
		KeystoneInterval: DEFAULT_KEYSTONE_INTERVAL,
	}
)

// ParamsForNetwork returns the parameters registered under name.
func ParamsForNetwork(name string) (*NetworkParams, error) {
	switch name {
	case MainNetParams.Name:
		return &MainNetParams, nil
	case TestNetParams.Name:
		return &TestNetParams, nil
	case RegTestParams.Name:
		return &RegTestParams, nil
	}
	return nil, fmt.Errorf("unknown network %q", name)
}

// networkMatches reports whether a decoded network byte belongs to p.
func (p *NetworkParams) networkMatches(got fn.Option[byte]) bool {
	if got.IsSome() != p.TxMagic.IsSome() {
		return false
	}
	return got.UnwrapOr(0) == p.TxMagic.UnwrapOr(0)
}
