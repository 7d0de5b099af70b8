package bitcoin

// MerkleRoot computes the Merkle root over a sequence of transaction ids in
// their natural little endian order. While more than one hash remains, the
// last is duplicated when the count is odd, then each pair is replaced with
// the double SHA256 of its concatenation.
func MerkleRoot(txids []Hash32) Hash32 {
	if len(txids) == 0 {
		return Hash32{}
	}

	layer := make([]Hash32, len(txids))
	copy(layer, txids)

	for len(layer) > 1 {
		if len(layer)%2 == 1 {
			layer = append(layer, layer[len(layer)-1])
		}

		next := make([]Hash32, 0, len(layer)/2)
		pair := make([]byte, 0, 2*Hash32Size)
		for i := 0; i < len(layer); i += 2 {
			pair = append(pair[:0], layer[i][:]...)
			pair = append(pair, layer[i+1][:]...)
			next = append(next, DoubleSha256Hash(pair))
		}

		layer = next
	}

	return layer[0]
}
