package txbuilder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/wire"

	"github.com/pkg/errors"
)

// SigHashType selects the subset of a transaction a signature commits to. It
// is serialized as a single trailing byte on signatures and as a four byte
// little endian tail on the sighash preimage. The types are mutually
// exclusive values, not flag bits.
//
// The subsets noted on the constants apply to the segwit digest, where
// SigHashSingle commits to the paired output's value only. The legacy digest
// commits to every input and output whatever the type; the type only sets
// the appended tail.
type SigHashType uint8

const (
	SigHashAll          SigHashType = 0x01 // Sign all inputs, all outputs
	SigHashNone         SigHashType = 0x02 // Sign all inputs, no outputs
	SigHashSingle       SigHashType = 0x03 // Sign all inputs, only the output at the input's index
	SigHashAnyOneCanPay SigHashType = 0x80 // Sign only the contained input
)

var (
	ErrUnknownSigHashType = errors.New("Unknown sig hash type")
)

// SigHashTypeFromByte converts the trailing byte of a signature into a sig
// hash type.
func SigHashTypeFromByte(b byte) (SigHashType, error) {
	switch SigHashType(b) {
	case SigHashAll, SigHashNone, SigHashSingle, SigHashAnyOneCanPay:
		return SigHashType(b), nil
	}

	return 0, errors.Wrapf(ErrUnknownSigHashType, "0x%02x", b)
}

func (t SigHashType) String() string {
	switch t {
	case SigHashAll:
		return "All"
	case SigHashNone:
		return "None"
	case SigHashSingle:
		return "Single"
	case SigHashAnyOneCanPay:
		return "AnyOneCanPay"
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(t))
}

// SigHashCache caches the sub hashes used to calculate segwit signature
// hashes so that signing or validating every input of a transaction reuses
// the hashing work.
type SigHashCache struct {
	hashPrevOuts []byte
	hashSequence []byte
	hashOutputs  []byte
}

// Clear resets all the hashes. This should be used if anything in the
// transaction changes and the signature hashes need to be recalculated.
func (shc *SigHashCache) Clear() {
	shc.hashPrevOuts = nil
	shc.hashSequence = nil
	shc.hashOutputs = nil
}

// HashPrevOuts calculates a single hash of all the previous outputs
// referenced by the transaction's inputs.
func (shc *SigHashCache) HashPrevOuts(tx *wire.MsgTx) []byte {
	if shc.hashPrevOuts != nil {
		return shc.hashPrevOuts
	}

	var buf bytes.Buffer
	for _, in := range tx.TxIn {
		in.PreviousOutPoint.Serialize(&buf)
	}

	shc.hashPrevOuts = bitcoin.DoubleSha256(buf.Bytes())
	return shc.hashPrevOuts
}

// HashSequence computes an aggregated hash of the sequence numbers of all
// inputs of the transaction.
func (shc *SigHashCache) HashSequence(tx *wire.MsgTx) []byte {
	if shc.hashSequence != nil {
		return shc.hashSequence
	}

	var buf bytes.Buffer
	for _, in := range tx.TxIn {
		binary.Write(&buf, binary.LittleEndian, in.Sequence)
	}

	shc.hashSequence = bitcoin.DoubleSha256(buf.Bytes())
	return shc.hashSequence
}

// HashOutputs computes a hash digest of all outputs of the transaction in
// their wire encoding.
func (shc *SigHashCache) HashOutputs(tx *wire.MsgTx) []byte {
	if shc.hashOutputs != nil {
		return shc.hashOutputs
	}

	var buf bytes.Buffer
	for _, out := range tx.TxOut {
		out.Serialize(&buf)
	}

	shc.hashOutputs = bitcoin.DoubleSha256(buf.Bytes())
	return shc.hashOutputs
}

// SignatureHash computes the hash to be signed for a transaction's input
// against the locking script being spent.
//
// Transactions carrying witness data use the BIP-143 style digest which also
// commits to the value of the spent output. Legacy transactions use the
// original algorithm: every input's unlocking script is cleared, the locking
// script is substituted at the signed input, and the four byte hash type is
// appended to the serialization before double hashing.
func SignatureHash(tx *wire.MsgTx, index int, lockingScript bitcoin.Script, value uint64,
	hashType SigHashType, hashCache *SigHashCache) (*bitcoin.Hash32, error) {

	if index >= len(tx.TxIn) {
		return nil, fmt.Errorf("Sig hash input index %d of %d inputs", index, len(tx.TxIn))
	}

	if tx.SegWit {
		return segWitSignatureHash(tx, index, lockingScript, value, hashType, hashCache)
	}

	return legacySignatureHash(tx, index, lockingScript, hashType)
}

func legacySignatureHash(tx *wire.MsgTx, index int, lockingScript bitcoin.Script,
	hashType SigHashType) (*bitcoin.Hash32, error) {

	txCopy := tx.Copy()
	for _, in := range txCopy.TxIn {
		in.UnlockingScript = nil
	}
	txCopy.TxIn[index].UnlockingScript = lockingScript

	buf := &bytes.Buffer{}
	if err := txCopy.SerializeNoWitness(buf); err != nil {
		return nil, errors.Wrap(err, "serialize")
	}

	if err := binary.Write(buf, binary.LittleEndian, uint32(hashType)); err != nil {
		return nil, errors.Wrap(err, "hash type")
	}

	result := bitcoin.DoubleSha256Hash(buf.Bytes())
	return &result, nil
}

func segWitSignatureHash(tx *wire.MsgTx, index int, lockingScript bitcoin.Script, value uint64,
	hashType SigHashType, hashCache *SigHashCache) (*bitcoin.Hash32, error) {

	buf := &bytes.Buffer{}
	if err := writeSegWitPreimage(buf, tx, index, lockingScript, value, hashType,
		hashCache); err != nil {
		return nil, errors.Wrap(err, "write preimage")
	}

	result := bitcoin.DoubleSha256Hash(buf.Bytes())
	return &result, nil
}

func writeSegWitPreimage(w io.Writer, tx *wire.MsgTx, index int, lockingScript bitcoin.Script,
	value uint64, hashType SigHashType, hashCache *SigHashCache) error {

	var zeroHash [32]byte

	binary.Write(w, binary.LittleEndian, tx.Version)

	// Under anyone can pay only the signed input's outpoint is committed.
	if hashType == SigHashAnyOneCanPay {
		w.Write(zeroHash[:])
	} else {
		w.Write(hashCache.HashPrevOuts(tx))
	}

	// Sequence numbers are only committed when every part of the transaction
	// is signed.
	if hashType == SigHashAll {
		w.Write(hashCache.HashSequence(tx))
	} else {
		w.Write(zeroHash[:])
	}

	// The outpoint being spent.
	tx.TxIn[index].PreviousOutPoint.Serialize(w)

	// The script code: for P2WPKH the witness program expands to the
	// equivalent P2PKH locking script; either way the script is committed
	// wrapped as a single push.
	scriptCode, err := segWitScriptCode(lockingScript)
	if err != nil {
		return errors.Wrap(err, "script code")
	}
	w.Write(scriptCode)

	// The value of the spent output and the signed input's sequence number.
	binary.Write(w, binary.LittleEndian, value)
	binary.Write(w, binary.LittleEndian, tx.TxIn[index].Sequence)

	if hashType == SigHashAll {
		w.Write(hashCache.HashOutputs(tx))
	} else if hashType == SigHashSingle && index < len(tx.TxOut) {
		// Only the value of the paired output is committed.
		var b bytes.Buffer
		binary.Write(&b, binary.LittleEndian, tx.TxOut[index].Value)
		w.Write(bitcoin.DoubleSha256(b.Bytes()))
	} else {
		w.Write(zeroHash[:])
	}

	binary.Write(w, binary.LittleEndian, tx.LockTime)
	binary.Write(w, binary.LittleEndian, uint32(hashType))

	return nil
}

func segWitScriptCode(lockingScript bitcoin.Script) ([]byte, error) {
	script := lockingScript
	if standard, err := bitcoin.ParseStandardScript(lockingScript); err == nil {
		if witness, ok := standard.(bitcoin.P2WPKH); ok {
			expanded, err := bitcoin.P2PKH{PubKeyHash: witness.PubKeyHash}.LockingScript()
			if err != nil {
				return nil, errors.Wrap(err, "expand p2wpkh")
			}
			script = expanded
		}
	}

	return bitcoin.NewPushDataScriptItem(script).Script()
}
