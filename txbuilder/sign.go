package txbuilder

import (
	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/wire"

	"github.com/pkg/errors"
)

// InputSignature signs an input against a locking script and returns the DER
// signature with the hash type byte appended, as it is pushed in unlocking
// scripts and witness stacks.
func InputSignature(key bitcoin.Key, tx *wire.MsgTx, index int, lockingScript bitcoin.Script,
	value uint64, hashType SigHashType, hashCache *SigHashCache) ([]byte, error) {

	hash, err := SignatureHash(tx, index, lockingScript, value, hashType, hashCache)
	if err != nil {
		return nil, errors.Wrap(err, "signature hash")
	}

	signature, err := key.Sign(*hash)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}

	return append(signature.Bytes(), byte(hashType)), nil
}

// P2PKUnlockingScript creates an unlocking script for an input spending a
// P2PK output.
func P2PKUnlockingScript(key bitcoin.Key, tx *wire.MsgTx, index int,
	lockingScript bitcoin.Script, value uint64, hashType SigHashType,
	hashCache *SigHashCache) (bitcoin.Script, error) {

	signature, err := InputSignature(key, tx, index, lockingScript, value, hashType, hashCache)
	if err != nil {
		return nil, err
	}

	return bitcoin.ScriptItems{
		bitcoin.NewPushDataScriptItem(signature),
	}.Script()
}

// P2PKHUnlockingScript creates an unlocking script for an input spending a
// P2PKH output.
func P2PKHUnlockingScript(key bitcoin.Key, tx *wire.MsgTx, index int,
	lockingScript bitcoin.Script, value uint64, hashType SigHashType,
	hashCache *SigHashCache) (bitcoin.Script, error) {

	signature, err := InputSignature(key, tx, index, lockingScript, value, hashType, hashCache)
	if err != nil {
		return nil, err
	}

	return bitcoin.ScriptItems{
		bitcoin.NewPushDataScriptItem(signature),
		bitcoin.NewPushDataScriptItem(key.PublicKey().Bytes()),
	}.Script()
}

// P2WPKHWitness creates the two item witness stack for an input spending a
// P2WPKH output. The input's unlocking script stays empty.
func P2WPKHWitness(key bitcoin.Key, tx *wire.MsgTx, index int,
	lockingScript bitcoin.Script, value uint64, hashType SigHashType,
	hashCache *SigHashCache) (wire.TxWitness, error) {

	signature, err := InputSignature(key, tx, index, lockingScript, value, hashType, hashCache)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{
		bitcoin.NewPushDataScriptItem(signature),
		bitcoin.NewPushDataScriptItem(key.PublicKey().Bytes()),
	}, nil
}

// P2SHUnlockingScript wraps an inner unlocking script with the push of the
// redeem script it satisfies.
func P2SHUnlockingScript(inner bitcoin.Script, redeemScript bitcoin.Script) (bitcoin.Script, error) {
	unlocking := bitcoin.P2SHUnlocking{
		Inner:        inner,
		RedeemScript: redeemScript,
	}
	return unlocking.Script()
}
