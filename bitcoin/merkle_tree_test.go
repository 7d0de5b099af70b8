package bitcoin

import (
	"testing"
)

func mustHash32(t *testing.T, s string) Hash32 {
	t.Helper()

	hash, err := NewHash32FromStr(s)
	if err != nil {
		t.Fatalf("Failed to parse hash : %s", err)
	}
	return *hash
}

// Mainnet block 100000 has four transactions.
func TestMerkleRootBlock100000(t *testing.T) {
	txids := []Hash32{
		mustHash32(t, "8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87"),
		mustHash32(t, "fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4"),
		mustHash32(t, "6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4"),
		mustHash32(t, "e9a66845e05d5abc0ad04ec80f774a7e585c6e8db975962d069a522137b80c1d"),
	}

	want := mustHash32(t, "f3e94742aca4b5ef85488dc37c06c3282295ffec960994b2c0d5ac2a25a95766")
	if got := MerkleRoot(txids); !got.Equal(&want) {
		t.Fatalf("Wrong merkle root\ngot:%s\nwant:%s", got, want)
	}
}

func TestMerkleRootSingle(t *testing.T) {
	txid := mustHash32(t, "8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87")

	// A single transaction is its own root.
	if got := MerkleRoot([]Hash32{txid}); !got.Equal(&txid) {
		t.Fatalf("Single txid should be its own root : %s", got)
	}
}

func TestMerkleRootOddCount(t *testing.T) {
	a := mustHash32(t, "8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87")
	b := mustHash32(t, "fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4")
	c := mustHash32(t, "6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4")

	// An odd layer duplicates its last entry, so these are equivalent.
	odd := MerkleRoot([]Hash32{a, b, c})
	padded := MerkleRoot([]Hash32{a, b, c, c})

	if !odd.Equal(&padded) {
		t.Fatalf("Odd count should duplicate the last txid\nodd:%s\npadded:%s", odd, padded)
	}
}
