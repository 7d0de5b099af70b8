package node

import (
	"context"
	"time"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/blockchain"
	"github.com/taekop/bitaekcoin/mempool"
	"github.com/taekop/bitaekcoin/wire"

	"github.com/pkg/errors"
	"github.com/tokenized/logger"
	"github.com/tokenized/threads"
)

const (
	// SubSystem names the miner for logging. No logger context is created
	// from it.
	SubSystem = "Miner"

	// interruptCheckInterval is how many nonce attempts are made between
	// checks of the interrupt channel.
	interruptCheckInterval = 0x1000
)

// Miner assembles candidate blocks from the mempool and searches nonces
// until the header meets the proof of work target. Every reward is paid to
// the miner's public key via P2PK.
type Miner struct {
	node      *Node
	pool      *mempool.Mempool
	bits      uint32
	publicKey bitcoin.PublicKey
}

func NewMiner(node *Node, pool *mempool.Mempool, bits uint32, publicKey bitcoin.PublicKey) *Miner {
	return &Miner{
		node:      node,
		pool:      pool,
		bits:      bits,
		publicKey: publicKey,
	}
}

// Run mines blocks until interrupted. No lock is held across the nonce
// search; the UTXO snapshot is taken by value before each attempt.
func (m *Miner) Run(ctx context.Context, interrupt <-chan interface{}) error {
	for {
		select {
		case <-interrupt:
			return nil
		default:
		}

		if err := m.MineNext(ctx, interrupt); err != nil {
			if errors.Cause(err) == threads.Interrupted {
				return nil
			}
			return err
		}
	}
}

func (m *Miner) MineNext(ctx context.Context, interrupt <-chan interface{}) error {
	prevHash, prevHeight, exists := m.node.ChainTip()
	height := uint64(0)
	if exists {
		height = prevHeight + 1
	}

	pending := m.pool.Drain()
	utxos := m.node.UTXOSnapshot()

	// Weed out anything unspendable against the snapshot so the nonce search
	// can only fail on proof of work.
	transactions := make([]*wire.MsgTx, 0, len(pending))
	for _, tx := range pending {
		if !blockchain.ValidateTransaction(tx, utxos) {
			logger.WarnWithFields(ctx, []logger.Field{
				logger.Stringer("txid", tx.TxHash()),
			}, "Dropping invalid pending transaction")
			continue
		}
		transactions = append(transactions, tx)
	}

	block, err := m.buildBlock(height, prevHash, transactions)
	if err != nil {
		return errors.Wrap(err, "build block")
	}

	for !blockchain.ValidateBlock(block, utxos) {
		if block.Header.Nonce%interruptCheckInterval == 0 {
			select {
			case <-interrupt:
				return threads.Interrupted
			default:
			}
		}

		block.Header.Nonce++
	}

	m.node.CommitBlock(block)

	logger.InfoWithFields(ctx, []logger.Field{
		logger.Stringer("hash", block.BlockHash()),
		logger.Uint64("height", height),
		logger.Int("txs", len(block.Transactions)),
		logger.Uint32("nonce", block.Header.Nonce),
	}, "Mined block")

	return nil
}

// buildBlock prepends a coinbase paying the mining reward to the miner and
// computes the Merkle root over the block's transactions.
func (m *Miner) buildBlock(height uint64, prevHash bitcoin.Hash32,
	transactions []*wire.MsgTx) (*wire.MsgBlock, error) {

	coinbase, err := m.coinbaseTx()
	if err != nil {
		return nil, errors.Wrap(err, "coinbase")
	}

	block := wire.NewMsgBlock(wire.BlockHeader{
		Height:    height,
		Version:   wire.TxVersion,
		PrevBlock: prevHash,
		Timestamp: uint32(time.Now().Unix()),
		Bits:      m.bits,
	})

	block.AddTransaction(coinbase)
	for _, tx := range transactions {
		block.AddTransaction(tx)
	}

	block.Header.MerkleRoot = bitcoin.MerkleRoot(block.TxHashes())
	return block, nil
}

func (m *Miner) coinbaseTx() (*wire.MsgTx, error) {
	lockingScript, err := bitcoin.P2PK{PublicKey: m.publicKey}.LockingScript()
	if err != nil {
		return nil, errors.Wrap(err, "locking script")
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  bitcoin.Hash32{},
			Index: wire.MaxPrevOutIndex,
		},
	})
	tx.AddTxOut(wire.NewTxOut(MiningReward, lockingScript))
	return tx, nil
}
