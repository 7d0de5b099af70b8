package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/taekop/bitaekcoin/bitcoin"

	"github.com/pkg/errors"
)

const (
	// BlockHeaderSize is the number of bytes in the serialized form of a
	// block header that the proof of work hash commits to.
	BlockHeaderSize = 80

	// maxTxPerBlock is the maximum number of transactions allowed in a
	// decoded block.
	maxTxPerBlock = 100000
)

// BlockHeader defines information about a block. Height is local bookkeeping
// only; it is not part of the 80 byte encoding the proof of work hash
// commits to.
type BlockHeader struct {
	Height     uint64         `json:"height"`
	Version    uint32         `json:"version"`
	PrevBlock  bitcoin.Hash32 `json:"prev_block_hash"`
	MerkleRoot bitcoin.Hash32 `json:"merkle_root"`
	Timestamp  uint32         `json:"timestamp"`
	Bits       uint32         `json:"bits"`
	Nonce      uint32         `json:"nonce"`
}

// BlockHash computes the block identifier: the double SHA256 of the 80 byte
// header serialization.
func (h *BlockHeader) BlockHash() *bitcoin.Hash32 {
	buf := bytes.NewBuffer(make([]byte, 0, BlockHeaderSize))
	_ = h.Serialize(buf)

	result := bitcoin.DoubleSha256Hash(buf.Bytes())
	return &result
}

// Serialize encodes the 80 byte header form to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := binary.Write(w, endian, h.Version); err != nil {
		return errors.Wrap(err, "version")
	}

	if err := h.PrevBlock.Serialize(w); err != nil {
		return errors.Wrap(err, "prev block")
	}

	if err := h.MerkleRoot.Serialize(w); err != nil {
		return errors.Wrap(err, "merkle root")
	}

	if err := binary.Write(w, endian, h.Timestamp); err != nil {
		return errors.Wrap(err, "timestamp")
	}

	if err := binary.Write(w, endian, h.Bits); err != nil {
		return errors.Wrap(err, "bits")
	}

	return binary.Write(w, endian, h.Nonce)
}

// Deserialize decodes the 80 byte header form from r. Height is not part of
// the encoding and is left untouched.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	if err := binary.Read(r, endian, &h.Version); err != nil {
		return errors.Wrap(err, "version")
	}

	if err := h.PrevBlock.Deserialize(r); err != nil {
		return errors.Wrap(err, "prev block")
	}

	if err := h.MerkleRoot.Deserialize(r); err != nil {
		return errors.Wrap(err, "merkle root")
	}

	if err := binary.Read(r, endian, &h.Timestamp); err != nil {
		return errors.Wrap(err, "timestamp")
	}

	if err := binary.Read(r, endian, &h.Bits); err != nil {
		return errors.Wrap(err, "bits")
	}

	return binary.Read(r, endian, &h.Nonce)
}

// MsgBlock represents a block: a header plus its ordered transactions.
// Transactions[0] is the coinbase.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// NewMsgBlock returns a new block message with the given header.
func NewMsgBlock(header BlockHeader) *MsgBlock {
	return &MsgBlock{Header: header}
}

// AddTransaction adds a transaction to the block.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// BlockHash computes the block identifier from the header.
func (msg *MsgBlock) BlockHash() *bitcoin.Hash32 {
	return msg.Header.BlockHash()
}

// TxHashes returns the txids of all transactions in the block.
func (msg *MsgBlock) TxHashes() []bitcoin.Hash32 {
	result := make([]bitcoin.Hash32, len(msg.Transactions))
	for i, tx := range msg.Transactions {
		result[i] = *tx.TxHash()
	}
	return result
}

// Serialize encodes the block to w: the 80 byte header followed by a varint
// transaction count and the full transaction serializations.
func (msg *MsgBlock) Serialize(w io.Writer) error {
	if err := msg.Header.Serialize(w); err != nil {
		return errors.Wrap(err, "header")
	}

	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return errors.Wrap(err, "tx count")
	}

	for i, tx := range msg.Transactions {
		if err := tx.Serialize(w); err != nil {
			return errors.Wrapf(err, "tx %d", i)
		}
	}

	return nil
}

// Deserialize decodes a block from r.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	if err := msg.Header.Deserialize(r); err != nil {
		return errors.Wrap(err, "header")
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return errors.Wrap(err, "tx count")
	}

	if count > maxTxPerBlock {
		return messageError("MsgBlock.Deserialize",
			fmt.Sprintf("too many transactions: %d", count))
	}

	msg.Transactions = make([]*MsgTx, count)
	for i := range msg.Transactions {
		tx := &MsgTx{}
		if err := tx.Deserialize(r); err != nil {
			return errors.Wrapf(err, "tx %d", i)
		}
		msg.Transactions[i] = tx
	}

	return nil
}
