package bitcoin

import (
	"math/big"
	"strings"
	"testing"
)

func TestConvertToTarget(t *testing.T) {
	tests := []struct {
		bits uint32
		hex  string // coefficient followed by (exponent-3) zero bytes
	}{
		{0x1a05db8b, "05db8b" + strings.Repeat("00", 0x1a-3)},
		{0x1b04864c, "04864c" + strings.Repeat("00", 0x1b-3)},
		{0x1d00ffff, "00ffff" + strings.Repeat("00", 0x1d-3)},
		{0x1f00ffff, "00ffff" + strings.Repeat("00", 0x1f-3)},
		{0x03123456, "123456"},
	}

	for _, tt := range tests {
		want, ok := new(big.Int).SetString(tt.hex, 16)
		if !ok {
			t.Fatalf("Failed to parse expected target hex")
		}

		if got := ConvertToTarget(tt.bits); got.Cmp(want) != 0 {
			t.Fatalf("Wrong target for bits 0x%08x\ngot:%064x\nwant:%064x", tt.bits, got, want)
		}
	}
}

func TestCheckProofOfWork(t *testing.T) {
	// Hash values right at the boundary of an easy target.
	target := ConvertToTarget(0x1f00ffff)

	atTarget := Hash32{}
	copy(atTarget[:], reverseBytes(target.FillBytes(make([]byte, Hash32Size))))
	if !CheckProofOfWork(atTarget, 0x1f00ffff) {
		t.Fatalf("Hash equal to the target should pass")
	}

	over := new(big.Int).Add(target, big.NewInt(1))
	overTarget := Hash32{}
	copy(overTarget[:], reverseBytes(over.FillBytes(make([]byte, Hash32Size))))
	if CheckProofOfWork(overTarget, 0x1f00ffff) {
		t.Fatalf("Hash above the target should fail")
	}
}

func reverseBytes(b []byte) []byte {
	result := make([]byte, len(b))
	for i, v := range b {
		result[len(b)-1-i] = v
	}
	return result
}
