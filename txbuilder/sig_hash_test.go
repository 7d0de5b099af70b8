package txbuilder

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/wire"
)

// Mainnet transaction 226a8b08dc46a00e9ecec5567a303a0b354bef3c1674476eb5e4b627b2ace493
// spends a P2PK output.
func testP2PKTx(t *testing.T) *wire.MsgTx {
	t.Helper()

	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  mustHash32(t, "40872a376e98a1f8b285827c2ad8c5b3eec7d779d752dc3a4adda5d9bb70f3b5"),
			Index: 0,
		},
		UnlockingScript: mustScript(t, bitcoin.ScriptItems{
			bitcoin.NewPushDataScriptItem(mustDecodeHex(t, "3044022057a1234709270325e7215200f982546304cf465971cbd55d54231ead54ef1a7802207a82e93ef2b0f87188abe87bccb67ee9d5c650b1b58948e5b1c80ba1b4c43dc301")),
		}),
		Sequence: 0xfffffffe,
	})
	tx.AddTxOut(wire.NewTxOut(22999, mustP2SH(t, "ea4e30950c2495beba1e75e035bedd55ccfe4c9b")))
	tx.AddTxOut(wire.NewTxOut(1955149, mustP2PKH(t, "676de8484253cd355c37fc51ba34f2e5d62a9440")))
	tx.LockTime = 434102
	return tx
}

func testP2PKLockingScript(t *testing.T) bitcoin.Script {
	t.Helper()

	publicKey, err := bitcoin.PublicKeyFromStr(
		"02d5ddb8c9a2bc17624baa51245ef3c07380f90b2e2f38217307a8a1869508ca01")
	if err != nil {
		t.Fatalf("Failed to parse public key : %s", err)
	}

	script, err := bitcoin.P2PK{PublicKey: publicKey}.LockingScript()
	if err != nil {
		t.Fatalf("Failed to build locking script : %s", err)
	}
	return script
}

func TestLegacySignatureHash(t *testing.T) {
	tx := testP2PKTx(t)

	wantTxID := "226a8b08dc46a00e9ecec5567a303a0b354bef3c1674476eb5e4b627b2ace493"
	if got := tx.TxHash().String(); got != wantTxID {
		t.Fatalf("Wrong txid\ngot:%s\nwant:%s", got, wantTxID)
	}

	hashCache := &SigHashCache{}
	hash, err := SignatureHash(tx, 0, testP2PKLockingScript(t), 0, SigHashAll, hashCache)
	if err != nil {
		t.Fatalf("Failed to compute signature hash : %s", err)
	}

	want := mustDecodeHex(t, "1fb32874e31febdd88dcbb6564499864543ad1378e580b68c09ebfe370b50588")
	if !bytes.Equal(hash[:], want) {
		t.Fatalf("Wrong signature hash\ngot:%x\nwant:%x", hash[:], want)
	}

	// The signature in the unlocking script verifies under this digest.
	items, err := tx.TxIn[0].UnlockingScript.Items()
	if err != nil {
		t.Fatalf("Failed to parse unlocking script : %s", err)
	}

	signature, err := bitcoin.ParseSignaturePush(items[0].Data)
	if err != nil {
		t.Fatalf("Failed to parse signature push : %s", err)
	}

	publicKey, err := bitcoin.PublicKeyFromStr(
		"02d5ddb8c9a2bc17624baa51245ef3c07380f90b2e2f38217307a8a1869508ca01")
	if err != nil {
		t.Fatalf("Failed to parse public key : %s", err)
	}

	if !signature.Signature.Verify(*hash, publicKey) {
		t.Fatalf("Signature should verify under the digest")
	}
}

func TestLegacySignatureHashIndexRange(t *testing.T) {
	tx := testP2PKTx(t)

	hashCache := &SigHashCache{}
	if _, err := SignatureHash(tx, 1, testP2PKLockingScript(t), 0, SigHashAll,
		hashCache); err == nil {
		t.Fatalf("Expected error for out of range input index")
	}
}

func TestSegWitSignatureHashCommitsToValue(t *testing.T) {
	tx := wire.NewMsgTx(1)
	tx.SegWit = true
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  mustHash32(t, "dfcec48bb8491856c353306ab5febeb7e99e4d783eedf3de98f3ee0812b92bad"),
			Index: 0,
		},
		Sequence: 0xffffffff,
	})
	tx.AddTxOut(wire.NewTxOut(81530, mustP2PKH(t, "8d7a0a3461e3891723e5fdf8129caa0075060cff")))
	tx.Witnesses = make([]wire.TxWitness, 1)

	lockingScript := mustP2PKH(t, "8d7a0a3461e3891723e5fdf8129caa0075060cff")

	first, err := SignatureHash(tx, 0, lockingScript, 194300, SigHashAll, &SigHashCache{})
	if err != nil {
		t.Fatalf("Failed to compute signature hash : %s", err)
	}

	second, err := SignatureHash(tx, 0, lockingScript, 194301, SigHashAll, &SigHashCache{})
	if err != nil {
		t.Fatalf("Failed to compute signature hash : %s", err)
	}

	if first.Equal(second) {
		t.Fatalf("Segwit digest should commit to the spent value")
	}
}

func TestSegWitSignatureHashTypes(t *testing.T) {
	tx := wire.NewMsgTx(1)
	tx.SegWit = true
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  mustHash32(t, "dfcec48bb8491856c353306ab5febeb7e99e4d783eedf3de98f3ee0812b92bad"),
			Index: 0,
		},
		Sequence: 0xffffffff,
	})
	tx.AddTxOut(wire.NewTxOut(81530, mustP2PKH(t, "8d7a0a3461e3891723e5fdf8129caa0075060cff")))
	tx.Witnesses = make([]wire.TxWitness, 1)

	lockingScript := mustP2PKH(t, "8d7a0a3461e3891723e5fdf8129caa0075060cff")

	// Each hash type commits to a different subset, so the digests all
	// differ.
	seen := make(map[bitcoin.Hash32]bool)
	for _, hashType := range []SigHashType{SigHashAll, SigHashNone, SigHashSingle,
		SigHashAnyOneCanPay} {
		hash, err := SignatureHash(tx, 0, lockingScript, 194300, hashType, &SigHashCache{})
		if err != nil {
			t.Fatalf("Failed to compute signature hash for %s : %s", hashType, err)
		}

		if seen[*hash] {
			t.Fatalf("Duplicate digest for hash type %s", hashType)
		}
		seen[*hash] = true
	}
}

func TestSigHashTypeFromByte(t *testing.T) {
	for _, valid := range []byte{0x01, 0x02, 0x03, 0x80} {
		if _, err := SigHashTypeFromByte(valid); err != nil {
			t.Fatalf("Byte 0x%02x should be a valid hash type : %s", valid, err)
		}
	}

	for _, invalid := range []byte{0x00, 0x04, 0x41, 0xff} {
		if _, err := SigHashTypeFromByte(invalid); err == nil {
			t.Fatalf("Byte 0x%02x should not be a valid hash type", invalid)
		}
	}
}

func mustHash32(t *testing.T, s string) bitcoin.Hash32 {
	t.Helper()

	hash, err := bitcoin.NewHash32FromStr(s)
	if err != nil {
		t.Fatalf("Failed to parse hash : %s", err)
	}
	return *hash
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("Failed to decode hex : %s", err)
	}
	return b
}

func mustScript(t *testing.T, items bitcoin.ScriptItems) bitcoin.Script {
	t.Helper()

	script, err := items.Script()
	if err != nil {
		t.Fatalf("Failed to build script : %s", err)
	}
	return script
}

func mustP2PKH(t *testing.T, pkhHex string) bitcoin.Script {
	t.Helper()

	hash, err := bitcoin.NewHash20FromStr(pkhHex)
	if err != nil {
		t.Fatalf("Failed to parse pkh : %s", err)
	}

	script, err := bitcoin.P2PKH{PubKeyHash: *hash}.LockingScript()
	if err != nil {
		t.Fatalf("Failed to build p2pkh script : %s", err)
	}
	return script
}

func mustP2SH(t *testing.T, shHex string) bitcoin.Script {
	t.Helper()

	hash, err := bitcoin.NewHash20FromStr(shHex)
	if err != nil {
		t.Fatalf("Failed to parse script hash : %s", err)
	}

	script, err := bitcoin.P2SH{ScriptHash: *hash}.LockingScript()
	if err != nil {
		t.Fatalf("Failed to build p2sh script : %s", err)
	}
	return script
}
