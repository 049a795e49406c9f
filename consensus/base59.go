package consensus

import "math/big"

// Multisig addresses use the base58 alphabet with '0' appended as the 59th
// digit. The final character of a multisig address is always '0', which can
// never appear in a standard address.
const base59Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz0"

var base59Index = func() [256]int16 {
	var idx [256]int16
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(base59Alphabet); i++ {
		idx[base59Alphabet[i]] = int16(i)
	}
	return idx
}()

var bigRadix59 = big.NewInt(int64(len(base59Alphabet)))

// base59Decode decodes s. Each leading zero digit becomes a leading zero
// byte. ok is false if s contains a character outside the alphabet.
func base59Decode(s string) ([]byte, bool) {
	n := new(big.Int)
	for i := 0; i < len(s); i++ {
		d := base59Index[s[i]]
		if d < 0 {
			return nil, false
		}
		n.Mul(n, bigRadix59)
		n.Add(n, big.NewInt(int64(d)))
	}
	zeros := 0
	for zeros < len(s) && s[zeros] == base59Alphabet[0] {
		zeros++
	}
	body := n.Bytes()
	out := make([]byte, zeros+len(body))
	copy(out[zeros:], body)
	return out, true
}

func base59Encode(b []byte) string {
	zeros := 0
	for zeros < len(b) && b[zeros] == 0 {
		zeros++
	}
	n := new(big.Int).SetBytes(b)
	mod := new(big.Int)
	var digits []byte
	for n.Sign() > 0 {
		n.DivMod(n, bigRadix59, mod)
		digits = append(digits, base59Alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		digits = append(digits, base59Alphabet[0])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
