package bitcoin

import (
	"math/big"
)

// ConvertToTarget expands a packed "target bits" value from a block header
// into the 256 bit threshold the header hash must not exceed. The high byte
// is the exponent and the low 24 bits are the big endian coefficient:
// target = coefficient * 2^(8*(exponent-3)).
func ConvertToTarget(bits uint32) *big.Int {
	exponent := uint8(bits >> 24)
	coefficient := big.NewInt(int64(bits & 0x00ffffff))

	if exponent < 3 {
		return coefficient.Rsh(coefficient, uint(8*(3-exponent)))
	}

	return coefficient.Lsh(coefficient, uint(8*(exponent-3)))
}

// CheckProofOfWork returns true if the hash, interpreted as a big endian
// number in its display order, does not exceed the target encoded in bits.
func CheckProofOfWork(hash Hash32, bits uint32) bool {
	return hash.Int().Cmp(ConvertToTarget(bits)) <= 0
}
