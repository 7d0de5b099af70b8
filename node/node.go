package node

import (
	"fmt"
	"sync"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/blockchain"
	"github.com/taekop/bitaekcoin/wire"

	"github.com/pkg/errors"
)

const (
	// MiningReward is the coinbase value paid to the miner for each block.
	MiningReward = uint64(100000000)

	// DefaultBits is the fixed difficulty: a very easy target suitable for
	// interactive mining.
	DefaultBits = uint32(0x1f00ffff)
)

var (
	ErrUnknownAccount = errors.New("Unknown account")
)

// Node is the ledger: the committed chain and the per account projection of
// its unspent outputs. All access is serialized behind a reader writer lock;
// readers proceed in parallel. The projection assumes every output committed
// to the chain is P2PK; anything else is a programming error and aborts.
type Node struct {
	accounts []*Account
	blocks   []*wire.MsgBlock
	utxos    blockchain.UTXOSet

	lock sync.RWMutex
}

// NewNode creates a node whose account zero is the master account for the
// provided key. The master receives all coinbase rewards.
func NewNode(masterKey bitcoin.Key) *Node {
	return &Node{
		accounts: []*Account{NewAccount(0, masterKey)},
		utxos:    blockchain.NewUTXOSet(),
	}
}

// ChainTip returns the hash and height of the latest block. When the chain
// is empty it returns the zero hash and false.
func (n *Node) ChainTip() (bitcoin.Hash32, uint64, bool) {
	n.lock.RLock()
	defer n.lock.RUnlock()

	if len(n.blocks) == 0 {
		return bitcoin.Hash32{}, 0, false
	}

	tip := n.blocks[len(n.blocks)-1]
	return *tip.BlockHash(), tip.Header.Height, true
}

// LatestBlock returns the tip block, or nil when the chain is empty.
func (n *Node) LatestBlock() *wire.MsgBlock {
	n.lock.RLock()
	defer n.lock.RUnlock()

	if len(n.blocks) == 0 {
		return nil
	}

	return n.blocks[len(n.blocks)-1]
}

// Blocks returns the committed blocks in chain order.
func (n *Node) Blocks() []*wire.MsgBlock {
	n.lock.RLock()
	defer n.lock.RUnlock()

	result := make([]*wire.MsgBlock, len(n.blocks))
	copy(result, n.blocks)
	return result
}

// UTXOSnapshot returns a deep copy of the unspent output set. The miner
// takes a snapshot before each attempt so no lock is held across the nonce
// search.
func (n *Node) UTXOSnapshot() blockchain.UTXOSet {
	n.lock.RLock()
	defer n.lock.RUnlock()

	return n.utxos.Copy()
}

// CreateAccount generates a fresh key and registers it under the next index.
// A copy of the new account is returned.
func (n *Node) CreateAccount() (*Account, error) {
	key, err := bitcoin.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	account := NewAccount(len(n.accounts), key)
	n.accounts = append(n.accounts, account)
	return account.Copy(), nil
}

// Account returns a copy of the account at the index.
func (n *Node) Account(index int) (*Account, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()

	if index < 0 || index >= len(n.accounts) {
		return nil, errors.Wrapf(ErrUnknownAccount, "index %d", index)
	}

	return n.accounts[index].Copy(), nil
}

// Accounts returns copies of all accounts in index order.
func (n *Node) Accounts() []*Account {
	n.lock.RLock()
	defer n.lock.RUnlock()

	result := make([]*Account, len(n.accounts))
	for i, account := range n.accounts {
		result[i] = account.Copy()
	}
	return result
}

// CommitBlock appends a validated block to the chain and projects it onto
// the account balances and the unspent output set: spent outpoints are
// removed and debited, new outputs are inserted and credited.
func (n *Node) CommitBlock(block *wire.MsgBlock) {
	n.lock.Lock()
	defer n.lock.Unlock()

	for _, tx := range block.Transactions {
		for _, input := range tx.TxIn {
			outpoint := input.PreviousOutPoint
			if outpoint.Hash.IsZero() && outpoint.Index == wire.MaxPrevOutIndex {
				continue // coinbase input mints; there is nothing to spend
			}

			output, exists := n.utxos.Spend(outpoint)
			if !exists {
				panic(fmt.Sprintf("committed block spends unknown outpoint %s", outpoint))
			}

			account := n.accountByPublicKey(outputPublicKey(output))
			account.Balance -= output.Value
			account.UTXOs.Spend(outpoint)
		}

		txid := *tx.TxHash()
		for index, output := range tx.TxOut {
			outpoint := wire.OutPoint{Hash: txid, Index: uint32(index)}
			account := n.accountByPublicKey(outputPublicKey(output))
			account.Balance += output.Value
			account.UTXOs.Add(outpoint, output.Copy())
			n.utxos.Add(outpoint, output.Copy())
		}
	}

	n.blocks = append(n.blocks, block)
}

func (n *Node) accountByPublicKey(publicKey bitcoin.PublicKey) *Account {
	for _, account := range n.accounts {
		if account.PublicKey().Equal(publicKey) {
			return account
		}
	}

	panic(fmt.Sprintf("no account for public key %s", publicKey))
}

// outputPublicKey extracts the P2PK public key from a committed output. The
// ledger only supports P2PK outputs; anything else aborts.
func outputPublicKey(output *wire.TxOut) bitcoin.PublicKey {
	standard, err := bitcoin.ParseStandardScript(output.LockingScript)
	if err != nil {
		panic(fmt.Sprintf("committed output with non standard script: %s", err))
	}

	lock, ok := standard.(bitcoin.P2PK)
	if !ok {
		panic(fmt.Sprintf("committed output with non P2PK script: %s", standard.Type()))
	}

	return lock.PublicKey
}
