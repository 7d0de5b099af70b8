package node

import (
	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/blockchain"
	"github.com/taekop/bitaekcoin/txbuilder"
	"github.com/taekop/bitaekcoin/wire"

	"github.com/pkg/errors"
)

var (
	// ErrInsufficientBalance means a transfer was requested for more than the
	// account's balance.
	ErrInsufficientBalance = errors.New("Insufficient balance")
)

// Account holds a private key and the confirmed state projected for it: its
// balance and the unspent outputs it can sign for. All outputs are P2PK to
// the account's public key.
type Account struct {
	Index   int
	Key     bitcoin.Key
	Balance uint64
	UTXOs   blockchain.UTXOSet
}

func NewAccount(index int, key bitcoin.Key) *Account {
	return &Account{
		Index: index,
		Key:   key,
		UTXOs: blockchain.NewUTXOSet(),
	}
}

// PublicKey returns the account's public key.
func (a *Account) PublicKey() bitcoin.PublicKey {
	return a.Key.PublicKey()
}

// Copy creates a deep copy of the account. The ledger hands out copies so
// callers never share the live projection.
func (a *Account) Copy() *Account {
	return &Account{
		Index:   a.Index,
		Key:     a.Key,
		Balance: a.Balance,
		UTXOs:   a.UTXOs.Copy(),
	}
}

// BuildTransfer constructs and signs a transaction paying amount to the
// recipient public key via P2PK. The account's outputs are consumed greedily
// in iteration order until they cover the amount, with any excess paid back
// to the account as change. Every input is signed under SigHashAll.
func (a *Account) BuildTransfer(to bitcoin.PublicKey, amount uint64) (*wire.MsgTx, error) {
	if amount > a.Balance {
		return nil, errors.Wrapf(ErrInsufficientBalance, "%d > %d", amount, a.Balance)
	}

	tx := wire.NewMsgTx(wire.TxVersion)

	type spend struct {
		lockingScript bitcoin.Script
		value         uint64
	}

	var sum uint64
	var spends []spend
	for outpoint, output := range a.UTXOs {
		tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{
			Hash:  outpoint.Hash,
			Index: outpoint.Index,
		}, nil))
		spends = append(spends, spend{
			lockingScript: output.LockingScript,
			value:         output.Value,
		})

		sum += output.Value
		if sum >= amount {
			break
		}
	}

	if sum < amount {
		return nil, errors.Wrapf(ErrInsufficientBalance, "utxos only cover %d", sum)
	}

	lockingScript, err := bitcoin.P2PK{PublicKey: to}.LockingScript()
	if err != nil {
		return nil, errors.Wrap(err, "locking script")
	}
	tx.AddTxOut(wire.NewTxOut(amount, lockingScript))

	if sum > amount {
		changeScript, err := bitcoin.P2PK{PublicKey: a.PublicKey()}.LockingScript()
		if err != nil {
			return nil, errors.Wrap(err, "change script")
		}
		tx.AddTxOut(wire.NewTxOut(sum-amount, changeScript))
	}

	hashCache := &txbuilder.SigHashCache{}
	for index, spend := range spends {
		unlockingScript, err := txbuilder.P2PKUnlockingScript(a.Key, tx, index,
			spend.lockingScript, spend.value, txbuilder.SigHashAll, hashCache)
		if err != nil {
			return nil, errors.Wrapf(err, "sign input %d", index)
		}

		tx.TxIn[index].UnlockingScript = unlockingScript
	}

	return tx, nil
}
