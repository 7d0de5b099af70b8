// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/taekop/bitaekcoin/bitcoin"

	"github.com/pkg/errors"
)

const (
	// TxVersion is the current latest supported transaction version.
	TxVersion = uint32(1)

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// MaxPrevOutIndex is the maximum index the index field of a previous
	// outpoint can be. The coinbase input uses it as a marker.
	MaxPrevOutIndex uint32 = 0xffffffff

	// SegWitMarker is the zero byte that takes the place of the input count
	// in the serialization of a transaction carrying witness data.
	SegWitMarker = byte(0x00)

	// SegWitFlag is the flag byte following the marker.
	SegWitFlag = byte(0x01)
)

// OutPoint identifies a previous transaction output.
type OutPoint struct {
	Hash  bitcoin.Hash32 `json:"hash"`
	Index uint32         `json:"index"`
}

// NewOutPoint returns a new outpoint with the provided hash and index.
func NewOutPoint(hash *bitcoin.Hash32, index uint32) *OutPoint {
	return &OutPoint{
		Hash:  *hash,
		Index: index,
	}
}

// String returns the OutPoint in the human-readable form "hash:index".
func (op OutPoint) String() string {
	return op.Hash.String() + ":" + strconv.FormatUint(uint64(op.Index), 10)
}

// Serialize encodes op to the wire encoding for an OutPoint to w.
func (op *OutPoint) Serialize(w io.Writer) error {
	if err := op.Hash.Serialize(w); err != nil {
		return err
	}

	return binary.Write(w, endian, op.Index)
}

// Deserialize decodes op from the wire encoding for an OutPoint.
func (op *OutPoint) Deserialize(r io.Reader) error {
	if err := op.Hash.Deserialize(r); err != nil {
		return err
	}

	return binary.Read(r, endian, &op.Index)
}

// TxIn defines a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint       `json:"outpoint"`
	UnlockingScript  bitcoin.Script `json:"script"`
	Sequence         uint32         `json:"sequence"`
}

// NewTxIn returns a new transaction input with the provided previous outpoint
// and unlocking script with a default sequence of MaxTxInSequenceNum.
func NewTxIn(prevOut *OutPoint, unlockingScript bitcoin.Script) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		UnlockingScript:  unlockingScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

// Serialize encodes t to the wire encoding for a TxIn to w.
func (t *TxIn) Serialize(w io.Writer) error {
	if err := t.PreviousOutPoint.Serialize(w); err != nil {
		return errors.Wrap(err, "outpoint")
	}

	if err := WriteVarBytes(w, t.UnlockingScript); err != nil {
		return errors.Wrap(err, "script")
	}

	return binary.Write(w, endian, t.Sequence)
}

// Deserialize decodes t from the wire encoding for a TxIn.
func (t *TxIn) Deserialize(r io.Reader) error {
	if err := t.PreviousOutPoint.Deserialize(r); err != nil {
		return errors.Wrap(err, "outpoint")
	}

	script, err := ReadVarBytes(r, MaxScriptSize, "unlocking script")
	if err != nil {
		return errors.Wrap(err, "script")
	}
	t.UnlockingScript = bitcoin.Script(script)

	return binary.Read(r, endian, &t.Sequence)
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction input.
func (t *TxIn) SerializeSize() int {
	// Outpoint Hash 32 bytes + Outpoint Index 4 bytes + Sequence 4 bytes +
	// serialized varint size for the length of UnlockingScript +
	// UnlockingScript bytes.
	return 40 + VarIntSerializeSize(uint64(len(t.UnlockingScript))) + len(t.UnlockingScript)
}

// TxOut defines a transaction output.
type TxOut struct {
	Value         uint64         `json:"value"`
	LockingScript bitcoin.Script `json:"locking_script"`
}

// NewTxOut returns a new transaction output with the provided value and
// locking script.
func NewTxOut(value uint64, lockingScript bitcoin.Script) *TxOut {
	return &TxOut{
		Value:         value,
		LockingScript: lockingScript,
	}
}

// Serialize encodes t to the wire encoding for a TxOut to w.
func (t *TxOut) Serialize(w io.Writer) error {
	if err := binary.Write(w, endian, t.Value); err != nil {
		return errors.Wrap(err, "value")
	}

	return WriteVarBytes(w, t.LockingScript)
}

// Deserialize decodes t from the wire encoding for a TxOut.
func (t *TxOut) Deserialize(r io.Reader) error {
	if err := binary.Read(r, endian, &t.Value); err != nil {
		return errors.Wrap(err, "value")
	}

	script, err := ReadVarBytes(r, MaxScriptSize, "locking script")
	if err != nil {
		return errors.Wrap(err, "script")
	}
	t.LockingScript = bitcoin.Script(script)

	return nil
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction output.
func (t *TxOut) SerializeSize() int {
	// Value 8 bytes + serialized varint size for the length of LockingScript +
	// LockingScript bytes.
	return 8 + VarIntSerializeSize(uint64(len(t.LockingScript))) + len(t.LockingScript)
}

// Copy creates a deep copy of the transaction output.
func (t *TxOut) Copy() *TxOut {
	return &TxOut{
		Value:         t.Value,
		LockingScript: t.LockingScript.Copy(),
	}
}

// TxWitness is the witness stack for one input: an ordered sequence of push
// data items. Items are serialized with their push flavor so re-serialization
// is byte exact.
type TxWitness bitcoin.ScriptItems

// Serialize encodes the witness stack to w.
func (tw TxWitness) Serialize(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(tw))); err != nil {
		return errors.Wrap(err, "count")
	}

	return bitcoin.ScriptItems(tw).Write(w)
}

// Deserialize decodes a witness stack from r.
func (tw *TxWitness) Deserialize(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return errors.Wrap(err, "count")
	}

	if count > maxWitnessItems {
		return messageError("TxWitness.Deserialize",
			fmt.Sprintf("too many witness items: %d", count))
	}

	items := make(bitcoin.ScriptItems, count)
	for i := range items {
		item, err := bitcoin.ParseScript(r)
		if err != nil {
			return errors.Wrapf(err, "item %d", i)
		}
		items[i] = item
	}

	*tw = TxWitness(items)
	return nil
}

// MsgTx represents a bitcoin transaction. When SegWit is set the full
// serialization carries the marker and flag bytes and one witness stack per
// input; the txid is always computed over the serialization without them.
type MsgTx struct {
	Version   uint32
	SegWit    bool
	TxIn      []*TxIn
	TxOut     []*TxOut
	Witnesses []TxWitness
	LockTime  uint32
}

// NewMsgTx returns a new tx message with the given version and defaults for
// the remaining fields.
func NewMsgTx(version uint32) *MsgTx {
	return &MsgTx{Version: version}
}

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// TxHash generates the txid for the transaction: the double SHA256 of the
// serialization without witness data.
func (msg *MsgTx) TxHash() *bitcoin.Hash32 {
	buf := &bytes.Buffer{}

	// The encode only fails on a failing writer and a bytes.Buffer doesn't
	// fail.
	_ = msg.SerializeNoWitness(buf)

	result := bitcoin.DoubleSha256Hash(buf.Bytes())
	return &result
}

// WTxHash generates the wtxid for the transaction: the double SHA256 of the
// full serialization, witness data included.
func (msg *MsgTx) WTxHash() *bitcoin.Hash32 {
	buf := &bytes.Buffer{}
	_ = msg.Serialize(buf)

	result := bitcoin.DoubleSha256Hash(buf.Bytes())
	return &result
}

// IsCoinBase returns true if the transaction is a coinbase: a single input
// spending the zero hash with the maximum output index.
func (msg *MsgTx) IsCoinBase() bool {
	if len(msg.TxIn) != 1 {
		return false
	}

	outpoint := msg.TxIn[0].PreviousOutPoint
	return outpoint.Hash.IsZero() && outpoint.Index == MaxPrevOutIndex
}

// Serialize encodes the transaction to w, including witness data when
// present.
func (msg *MsgTx) Serialize(w io.Writer) error {
	if err := binary.Write(w, endian, msg.Version); err != nil {
		return errors.Wrap(err, "version")
	}

	if msg.SegWit {
		if _, err := w.Write([]byte{SegWitMarker, SegWitFlag}); err != nil {
			return errors.Wrap(err, "marker")
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return errors.Wrap(err, "txin count")
	}
	for i, ti := range msg.TxIn {
		if err := ti.Serialize(w); err != nil {
			return errors.Wrapf(err, "txin %d", i)
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return errors.Wrap(err, "txout count")
	}
	for i, to := range msg.TxOut {
		if err := to.Serialize(w); err != nil {
			return errors.Wrapf(err, "txout %d", i)
		}
	}

	if msg.SegWit {
		for i, witness := range msg.Witnesses {
			if err := witness.Serialize(w); err != nil {
				return errors.Wrapf(err, "witness %d", i)
			}
		}
	}

	return binary.Write(w, endian, msg.LockTime)
}

// SerializeNoWitness encodes the transaction to w without the marker, flag,
// and witness stacks. This is the encoding the txid commits to.
func (msg *MsgTx) SerializeNoWitness(w io.Writer) error {
	if err := binary.Write(w, endian, msg.Version); err != nil {
		return errors.Wrap(err, "version")
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return errors.Wrap(err, "txin count")
	}
	for i, ti := range msg.TxIn {
		if err := ti.Serialize(w); err != nil {
			return errors.Wrapf(err, "txin %d", i)
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return errors.Wrap(err, "txout count")
	}
	for i, to := range msg.TxOut {
		if err := to.Serialize(w); err != nil {
			return errors.Wrapf(err, "txout %d", i)
		}
	}

	return binary.Write(w, endian, msg.LockTime)
}

// Deserialize decodes a transaction from r. The presence of the segwit
// marker and flag bytes is detected by a zero input count.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	if err := binary.Read(r, endian, &msg.Version); err != nil {
		return errors.Wrap(err, "version")
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return errors.Wrap(err, "txin count")
	}

	msg.SegWit = false
	if count == 0 {
		// A zero input count is the segwit marker. The flag byte follows,
		// then the actual input count.
		var flag uint8
		if err := binary.Read(r, endian, &flag); err != nil {
			return errors.Wrap(err, "flag")
		}

		if flag != SegWitFlag {
			return messageError("MsgTx.Deserialize",
				fmt.Sprintf("invalid segwit flag: 0x%02x", flag))
		}

		msg.SegWit = true
		count, err = ReadVarInt(r)
		if err != nil {
			return errors.Wrap(err, "txin count")
		}
	}

	msg.TxIn = make([]*TxIn, count)
	for i := range msg.TxIn {
		ti := &TxIn{}
		if err := ti.Deserialize(r); err != nil {
			return errors.Wrapf(err, "txin %d", i)
		}
		msg.TxIn[i] = ti
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return errors.Wrap(err, "txout count")
	}

	msg.TxOut = make([]*TxOut, outCount)
	for i := range msg.TxOut {
		to := &TxOut{}
		if err := to.Deserialize(r); err != nil {
			return errors.Wrapf(err, "txout %d", i)
		}
		msg.TxOut[i] = to
	}

	msg.Witnesses = nil
	if msg.SegWit {
		msg.Witnesses = make([]TxWitness, len(msg.TxIn))
		for i := range msg.Witnesses {
			if err := msg.Witnesses[i].Deserialize(r); err != nil {
				return errors.Wrapf(err, "witness %d", i)
			}
		}
	}

	return binary.Read(r, endian, &msg.LockTime)
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction without witness data.
func (msg *MsgTx) SerializeSize() int {
	// Version 4 bytes + LockTime 4 bytes + serialized varint size for the
	// number of transaction inputs and outputs.
	n := 8 + VarIntSerializeSize(uint64(len(msg.TxIn))) +
		VarIntSerializeSize(uint64(len(msg.TxOut)))

	for _, ti := range msg.TxIn {
		n += ti.SerializeSize()
	}

	for _, to := range msg.TxOut {
		n += to.SerializeSize()
	}

	return n
}

// Copy creates a deep copy of the transaction.
func (msg *MsgTx) Copy() *MsgTx {
	result := &MsgTx{
		Version:  msg.Version,
		SegWit:   msg.SegWit,
		TxIn:     make([]*TxIn, 0, len(msg.TxIn)),
		TxOut:    make([]*TxOut, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	for _, ti := range msg.TxIn {
		result.TxIn = append(result.TxIn, &TxIn{
			PreviousOutPoint: OutPoint{
				Hash:  ti.PreviousOutPoint.Hash.Copy(),
				Index: ti.PreviousOutPoint.Index,
			},
			UnlockingScript: ti.UnlockingScript.Copy(),
			Sequence:        ti.Sequence,
		})
	}

	for _, to := range msg.TxOut {
		result.TxOut = append(result.TxOut, to.Copy())
	}

	if msg.Witnesses != nil {
		result.Witnesses = make([]TxWitness, len(msg.Witnesses))
		for i, witness := range msg.Witnesses {
			items := make(bitcoin.ScriptItems, len(witness))
			for j, item := range witness {
				data := make([]byte, len(item.Data))
				copy(data, item.Data)
				items[j] = &bitcoin.ScriptItem{
					Type:   item.Type,
					OpCode: item.OpCode,
					Data:   data,
				}
			}
			result.Witnesses[i] = TxWitness(items)
		}
	}

	return result
}

func (msg *MsgTx) String() string {
	result := fmt.Sprintf("TxId: %s (%d bytes)\n", msg.TxHash(), msg.SerializeSize())
	result += fmt.Sprintf("  Version: %d\n", msg.Version)
	result += "  Inputs:\n\n"
	for _, input := range msg.TxIn {
		result += fmt.Sprintf("    Outpoint: %d - %s\n", input.PreviousOutPoint.Index,
			input.PreviousOutPoint.Hash.String())
		result += fmt.Sprintf("    Script: %s\n", input.UnlockingScript)
		result += fmt.Sprintf("    Sequence: %x\n\n", input.Sequence)
	}
	result += "  Outputs:\n\n"
	for _, output := range msg.TxOut {
		result += fmt.Sprintf("    Value: %.08f\n", float32(output.Value)/100000000.0)
		result += fmt.Sprintf("    Script: %s\n\n", output.LockingScript)
	}
	result += fmt.Sprintf("  LockTime: %d\n", msg.LockTime)
	return result
}
