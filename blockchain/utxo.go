package blockchain

import (
	"github.com/taekop/bitaekcoin/wire"
)

// UTXOSet maps outpoints to the unspent outputs they reference. Outputs of a
// committed block are inserted and inputs of a committed block remove
// entries.
type UTXOSet map[wire.OutPoint]*wire.TxOut

func NewUTXOSet() UTXOSet {
	return make(UTXOSet)
}

// Add inserts an output.
func (s UTXOSet) Add(outpoint wire.OutPoint, output *wire.TxOut) {
	s[outpoint] = output
}

// Spend removes an entry, returning the output that was spent.
func (s UTXOSet) Spend(outpoint wire.OutPoint) (*wire.TxOut, bool) {
	output, exists := s[outpoint]
	if exists {
		delete(s, outpoint)
	}
	return output, exists
}

// Get looks up an outpoint.
func (s UTXOSet) Get(outpoint wire.OutPoint) (*wire.TxOut, bool) {
	output, exists := s[outpoint]
	return output, exists
}

// Copy creates a deep copy of the set. The mining loop works on a copy so no
// lock is held across the nonce search.
func (s UTXOSet) Copy() UTXOSet {
	result := make(UTXOSet, len(s))
	for outpoint, output := range s {
		result[outpoint] = output.Copy()
	}
	return result
}
