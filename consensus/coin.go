package consensus

import (
	"errors"
	"fmt"
	"math"
)

// COIN_UNITS is the number of atomic units in one whole coin.
const COIN_UNITS = 100_000_000

var ErrCoinOverflow = errors.New("coin: arithmetic overflow")

// Coin is an amount in atomic units. Arithmetic never rounds and reports
// overflow instead of wrapping.
type Coin int64

// Add returns c + o.
func (c Coin) Add(o Coin) (Coin, error) {
	if (o > 0 && c > math.MaxInt64-o) || (o < 0 && c < math.MinInt64-o) {
		return 0, ErrCoinOverflow
	}
	return c + o, nil
}

// Sub returns c - o.
func (c Coin) Sub(o Coin) (Coin, error) {
	if (o > 0 && c < math.MinInt64+o) || (o < 0 && c > math.MaxInt64+o) {
		return 0, ErrCoinOverflow
	}
	return c - o, nil
}

func (c Coin) String() string {
	sign := ""
	u := uint64(c)
	if c < 0 {
		sign = "-"
		u = uint64(-(c + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%08d", sign, u/COIN_UNITS, u%COIN_UNITS)
}

func appendCoin(dst []byte, c Coin) []byte {
	return appendTrimmedInt64(dst, int64(c))
}

func readCoin(cur *cursor, field string) (Coin, error) {
	v, err := cur.readTrimmedInt64(field)
	if err != nil {
		return 0, err
	}
	return Coin(v), nil
}
