package blockchain

import (
	"bytes"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/txbuilder"
	"github.com/taekop/bitaekcoin/wire"
)

// ValidateInput returns true if the unlocking script (and witness, for segwit
// templates) authorizes spending the output locked by lockingScript, for the
// given input of the transaction. value is the amount of the spent output,
// committed by the segwit digest.
//
// Dispatch covers the standard templates only. Non standard locking scripts
// and P2WSH never validate.
func ValidateInput(tx *wire.MsgTx, index int, unlockingScript bitcoin.Script,
	lockingScript bitcoin.Script, value uint64) bool {

	standard, err := bitcoin.ParseStandardScript(lockingScript)
	if err != nil {
		return false
	}

	hashCache := &txbuilder.SigHashCache{}

	switch lock := standard.(type) {
	case bitcoin.P2PK:
		return validateP2PK(tx, index, unlockingScript, lockingScript, value, lock, hashCache)

	case bitcoin.P2PKH:
		return validateP2PKH(tx, index, unlockingScript, lockingScript, value, lock, hashCache)

	case bitcoin.P2MS:
		return validateP2MS(tx, index, unlockingScript, lockingScript, value, lock, hashCache)

	case bitcoin.P2SH:
		return validateP2SH(tx, index, unlockingScript, value, lock)

	case bitcoin.NullData:
		return false // provably unspendable

	case bitcoin.P2WPKH:
		return validateP2WPKH(tx, index, unlockingScript, lockingScript, value, lock, hashCache)

	case bitcoin.P2WSH:
		return false // recognized, but validation is not implemented
	}

	return false
}

func validateP2PK(tx *wire.MsgTx, index int, unlockingScript bitcoin.Script,
	lockingScript bitcoin.Script, value uint64, lock bitcoin.P2PK,
	hashCache *txbuilder.SigHashCache) bool {

	unlocking, err := bitcoin.ParseUnlockingScript(unlockingScript, bitcoin.StandardScriptTypeP2PK)
	if err != nil {
		return false
	}
	unlock := unlocking.(bitcoin.P2PKUnlocking)

	hashType, err := txbuilder.SigHashTypeFromByte(unlock.Signature.HashType)
	if err != nil {
		return false
	}

	hash, err := txbuilder.SignatureHash(tx, index, lockingScript, value, hashType, hashCache)
	if err != nil {
		return false
	}

	return unlock.Signature.Signature.Verify(*hash, lock.PublicKey)
}

func validateP2PKH(tx *wire.MsgTx, index int, unlockingScript bitcoin.Script,
	lockingScript bitcoin.Script, value uint64, lock bitcoin.P2PKH,
	hashCache *txbuilder.SigHashCache) bool {

	unlocking, err := bitcoin.ParseUnlockingScript(unlockingScript, bitcoin.StandardScriptTypeP2PKH)
	if err != nil {
		return false
	}
	unlock := unlocking.(bitcoin.P2PKHUnlocking)

	hash20 := unlock.PublicKey.Hash()
	if !hash20.Equal(&lock.PubKeyHash) {
		return false
	}

	hashType, err := txbuilder.SigHashTypeFromByte(unlock.Signature.HashType)
	if err != nil {
		return false
	}

	hash, err := txbuilder.SignatureHash(tx, index, lockingScript, value, hashType, hashCache)
	if err != nil {
		return false
	}

	return unlock.Signature.Signature.Verify(*hash, unlock.PublicKey)
}

func validateP2MS(tx *wire.MsgTx, index int, unlockingScript bitcoin.Script,
	lockingScript bitcoin.Script, value uint64, lock bitcoin.P2MS,
	hashCache *txbuilder.SigHashCache) bool {

	unlocking, err := bitcoin.ParseUnlockingScript(unlockingScript, bitcoin.StandardScriptTypeP2MS)
	if err != nil {
		return false
	}
	unlock := unlocking.(bitcoin.P2MSUnlocking)

	// Signatures must appear in public key order. Both cursors only advance:
	// for each signature, public keys are consumed from the front until one
	// verifies it.
	matches := uint8(0)
	publicKeys := lock.PublicKeys
	for _, signature := range unlock.Signatures {
		hashType, err := txbuilder.SigHashTypeFromByte(signature.HashType)
		if err != nil {
			return false
		}

		hash, err := txbuilder.SignatureHash(tx, index, lockingScript, value, hashType, hashCache)
		if err != nil {
			return false
		}

		for len(publicKeys) > 0 {
			publicKey := publicKeys[0]
			publicKeys = publicKeys[1:]
			if signature.Signature.Verify(*hash, publicKey) {
				matches++
				break
			}
		}
	}

	return matches >= lock.Required
}

func validateP2SH(tx *wire.MsgTx, index int, unlockingScript bitcoin.Script,
	value uint64, lock bitcoin.P2SH) bool {

	unlocking, err := bitcoin.ParseUnlockingScript(unlockingScript, bitcoin.StandardScriptTypeP2SH)
	if err != nil {
		return false
	}
	unlock := unlocking.(bitcoin.P2SHUnlocking)

	scriptHash := bitcoin.Hash160Hash(unlock.RedeemScript)
	if !scriptHash.Equal(&lock.ScriptHash) {
		return false
	}

	// The redeem script becomes the locking script for the inner validation.
	// Nested P2SH is not allowed, which bounds the recursion.
	redeemStandard, err := bitcoin.ParseStandardScript(unlock.RedeemScript)
	if err != nil {
		return false
	}
	if redeemStandard.Type() == bitcoin.StandardScriptTypeP2SH {
		return false
	}

	return ValidateInput(tx, index, unlock.Inner, unlock.RedeemScript, value)
}

func validateP2WPKH(tx *wire.MsgTx, index int, unlockingScript bitcoin.Script,
	lockingScript bitcoin.Script, value uint64, lock bitcoin.P2WPKH,
	hashCache *txbuilder.SigHashCache) bool {

	if !tx.SegWit || index >= len(tx.Witnesses) {
		return false
	}

	// The unlocking script carries nothing; the witness supplies the
	// signature and public key like a P2PKH unlocking script.
	if len(unlockingScript) != 0 {
		return false
	}

	witness := tx.Witnesses[index]
	if len(witness) != 2 {
		return false
	}

	signature, err := bitcoin.ParseSignaturePush(witness[0].Data)
	if err != nil {
		return false
	}

	publicKey, err := bitcoin.PublicKeyFromBytes(witness[1].Data)
	if err != nil {
		return false
	}

	hash20 := publicKey.Hash()
	if !hash20.Equal(&lock.PubKeyHash) {
		return false
	}

	hashType, err := txbuilder.SigHashTypeFromByte(signature.HashType)
	if err != nil {
		return false
	}

	hash, err := txbuilder.SignatureHash(tx, index, lockingScript, value, hashType, hashCache)
	if err != nil {
		return false
	}

	return signature.Signature.Verify(*hash, publicKey)
}

// ValidateTransaction returns true if every input of the transaction spends
// an outpoint present in the snapshot, every input is authorized, and the
// input values cover the output values.
func ValidateTransaction(tx *wire.MsgTx, outpoints UTXOSet) bool {
	var sumIn, sumOut uint64
	for _, output := range tx.TxOut {
		sumOut += output.Value
	}

	for index, input := range tx.TxIn {
		output, exists := outpoints.Get(input.PreviousOutPoint)
		if !exists {
			return false
		}

		if !ValidateInput(tx, index, input.UnlockingScript, output.LockingScript,
			output.Value) {
			return false
		}

		sumIn += output.Value
	}

	return sumIn >= sumOut
}

// ValidateBlock returns true if every non coinbase transaction of the block
// validates against the provided outpoint snapshot, the header's Merkle root
// matches the transactions, and the header hash meets the proof of work
// target.
func ValidateBlock(block *wire.MsgBlock, outpoints UTXOSet) bool {
	if len(block.Transactions) == 0 {
		return false
	}

	for _, tx := range block.Transactions[1:] {
		if !ValidateTransaction(tx, outpoints) {
			return false
		}
	}

	root := bitcoin.MerkleRoot(block.TxHashes())
	if !bytes.Equal(root[:], block.Header.MerkleRoot[:]) {
		return false
	}

	return bitcoin.CheckProofOfWork(*block.Header.BlockHash(), block.Header.Bits)
}
