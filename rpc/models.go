package rpc

import (
	"encoding/hex"

	"github.com/taekop/bitaekcoin/node"
	"github.com/taekop/bitaekcoin/wire"
)

// Block is the JSON projection of a committed block.
type Block struct {
	Hash         string        `json:"hash"`
	Height       uint64        `json:"height"`
	Version      uint32        `json:"version"`
	PrevBlock    string        `json:"prev_block_hash"`
	MerkleRoot   string        `json:"merkle_root"`
	Timestamp    uint32        `json:"timestamp"`
	Bits         uint32        `json:"bits"`
	Nonce        uint32        `json:"nonce"`
	Transactions []Transaction `json:"transactions"`
}

// Transaction is the JSON projection of a transaction.
type Transaction struct {
	TxID     string   `json:"txid"`
	Version  uint32   `json:"version"`
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	LockTime uint32   `json:"lock_time"`
}

// Input is the JSON projection of a transaction input.
type Input struct {
	TxID            string `json:"txid"`
	Index           uint32 `json:"index"`
	UnlockingScript string `json:"unlocking_script"`
	Sequence        uint32 `json:"sequence"`
}

// Output is the JSON projection of a transaction output.
type Output struct {
	Value         uint64 `json:"value"`
	LockingScript string `json:"locking_script"`
}

// Account is the JSON projection of an account. The private key never
// leaves the ledger.
type Account struct {
	Index     int    `json:"index"`
	PublicKey string `json:"public_key"`
	Balance   uint64 `json:"balance"`
	UTXOs     []UTXO `json:"utxos"`
}

// UTXO is the JSON projection of a spendable output.
type UTXO struct {
	TxID          string `json:"txid"`
	Index         uint32 `json:"index"`
	Value         uint64 `json:"value"`
	LockingScript string `json:"locking_script"`
}

func convertBlock(block *wire.MsgBlock) Block {
	transactions := make([]Transaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		transactions[i] = convertTransaction(tx)
	}

	return Block{
		Hash:         block.BlockHash().String(),
		Height:       block.Header.Height,
		Version:      block.Header.Version,
		PrevBlock:    block.Header.PrevBlock.String(),
		MerkleRoot:   block.Header.MerkleRoot.String(),
		Timestamp:    block.Header.Timestamp,
		Bits:         block.Header.Bits,
		Nonce:        block.Header.Nonce,
		Transactions: transactions,
	}
}

func convertTransaction(tx *wire.MsgTx) Transaction {
	inputs := make([]Input, len(tx.TxIn))
	for i, input := range tx.TxIn {
		inputs[i] = Input{
			TxID:            input.PreviousOutPoint.Hash.String(),
			Index:           input.PreviousOutPoint.Index,
			UnlockingScript: hex.EncodeToString(input.UnlockingScript),
			Sequence:        input.Sequence,
		}
	}

	outputs := make([]Output, len(tx.TxOut))
	for i, output := range tx.TxOut {
		outputs[i] = Output{
			Value:         output.Value,
			LockingScript: hex.EncodeToString(output.LockingScript),
		}
	}

	return Transaction{
		TxID:     tx.TxHash().String(),
		Version:  tx.Version,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: tx.LockTime,
	}
}

func convertAccount(account *node.Account) Account {
	utxos := make([]UTXO, 0, len(account.UTXOs))
	for outpoint, output := range account.UTXOs {
		utxos = append(utxos, UTXO{
			TxID:          outpoint.Hash.String(),
			Index:         outpoint.Index,
			Value:         output.Value,
			LockingScript: hex.EncodeToString(output.LockingScript),
		})
	}

	return Account{
		Index:     account.Index,
		PublicKey: account.PublicKey().String(),
		Balance:   account.Balance,
		UTXOs:     utxos,
	}
}
