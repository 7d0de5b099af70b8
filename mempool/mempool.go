package mempool

import (
	"sync"

	"github.com/taekop/bitaekcoin/wire"

	"github.com/pkg/errors"
)

var (
	// ErrOutpointConflict means a submitted transaction spends an outpoint
	// already spent by a pending transaction.
	ErrOutpointConflict = errors.New("Outpoint conflict")
)

// Mempool is a FIFO queue of pending transactions. Admission rejects
// transactions that double spend an outpoint against the pending set; the
// miner drains the whole queue atomically when it starts a block.
type Mempool struct {
	transactions []*wire.MsgTx

	lock sync.RWMutex
}

func NewMempool() *Mempool {
	return &Mempool{}
}

// Submit appends a transaction to the queue. It returns ErrOutpointConflict
// if any of the transaction's inputs collide with an input already pending,
// or with another of its own inputs.
func (m *Mempool) Submit(tx *wire.MsgTx) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	spent := make(map[wire.OutPoint]struct{})
	for _, pending := range m.transactions {
		for _, input := range pending.TxIn {
			spent[input.PreviousOutPoint] = struct{}{}
		}
	}

	for _, input := range tx.TxIn {
		if _, exists := spent[input.PreviousOutPoint]; exists {
			return errors.Wrap(ErrOutpointConflict, input.PreviousOutPoint.String())
		}
		spent[input.PreviousOutPoint] = struct{}{}
	}

	m.transactions = append(m.transactions, tx)
	return nil
}

// Drain removes and returns all pending transactions in submission order.
func (m *Mempool) Drain() []*wire.MsgTx {
	m.lock.Lock()
	defer m.lock.Unlock()

	result := m.transactions
	m.transactions = nil
	return result
}

// Transactions returns a snapshot of the pending queue.
func (m *Mempool) Transactions() []*wire.MsgTx {
	m.lock.RLock()
	defer m.lock.RUnlock()

	result := make([]*wire.MsgTx, len(m.transactions))
	copy(result, m.transactions)
	return result
}

// Len returns the number of pending transactions.
func (m *Mempool) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.transactions)
}
