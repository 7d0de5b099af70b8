package bitcoin

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// Sha256 returns the SHA256 of the input.
func Sha256(b []byte) []byte {
	result := sha256.Sum256(b)
	return result[:]
}

// DoubleSha256 performs SHA256 twice on the input. Used for transaction ids,
// block hashes, and Merkle tree nodes.
func DoubleSha256(b []byte) []byte {
	return Sha256(Sha256(b))
}

// Ripemd160 returns the RIPEMD-160 of the input.
func Ripemd160(b []byte) []byte {
	hasher := ripemd160.New()
	hasher.Write(b)
	return hasher.Sum(nil)
}

// Hash160 returns Ripemd160(Sha256(input)). This is the hash used for public
// key hashes and script hashes.
func Hash160(b []byte) []byte {
	return Ripemd160(Sha256(b))
}
