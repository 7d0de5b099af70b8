package node

import (
	"testing"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/blockchain"
	"github.com/taekop/bitaekcoin/wire"

	"github.com/pkg/errors"
)

func TestBuildTransferSigns(t *testing.T) {
	key, err := bitcoin.KeyFromStr(testMasterKey)
	if err != nil {
		t.Fatalf("Failed to parse key : %s", err)
	}

	sender := NewAccount(0, key)

	lockingScript, err := bitcoin.P2PK{PublicKey: sender.PublicKey()}.LockingScript()
	if err != nil {
		t.Fatalf("Failed to build locking script : %s", err)
	}

	outpoint := wire.OutPoint{Index: 0}
	sender.Balance = 1
	sender.UTXOs.Add(outpoint, wire.NewTxOut(1, lockingScript))

	recipientKey, err := bitcoin.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}

	tx, err := sender.BuildTransfer(recipientKey.PublicKey(), 1)
	if err != nil {
		t.Fatalf("Failed to build transfer : %s", err)
	}

	if len(tx.TxIn) != 1 {
		t.Fatalf("Wrong input count : got %d, want 1", len(tx.TxIn))
	}

	// The full amount is spent so there is no change output.
	if len(tx.TxOut) != 1 {
		t.Fatalf("Wrong output count : got %d, want 1", len(tx.TxOut))
	}

	if !blockchain.ValidateInput(tx, 0, tx.TxIn[0].UnlockingScript, lockingScript, 1) {
		t.Fatalf("Transfer input should validate")
	}
}

func TestBuildTransferChange(t *testing.T) {
	key, err := bitcoin.KeyFromStr(testMasterKey)
	if err != nil {
		t.Fatalf("Failed to parse key : %s", err)
	}

	sender := NewAccount(0, key)

	lockingScript, err := bitcoin.P2PK{PublicKey: sender.PublicKey()}.LockingScript()
	if err != nil {
		t.Fatalf("Failed to build locking script : %s", err)
	}

	sender.Balance = 100
	sender.UTXOs.Add(wire.OutPoint{Index: 0}, wire.NewTxOut(100, lockingScript))

	recipientKey, err := bitcoin.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}

	tx, err := sender.BuildTransfer(recipientKey.PublicKey(), 30)
	if err != nil {
		t.Fatalf("Failed to build transfer : %s", err)
	}

	if len(tx.TxOut) != 2 {
		t.Fatalf("Wrong output count : got %d, want 2", len(tx.TxOut))
	}

	if tx.TxOut[0].Value != 30 {
		t.Fatalf("Wrong payment value : got %d, want 30", tx.TxOut[0].Value)
	}

	// Change pays back to the sender.
	if tx.TxOut[1].Value != 70 {
		t.Fatalf("Wrong change value : got %d, want 70", tx.TxOut[1].Value)
	}

	standard, err := bitcoin.ParseStandardScript(tx.TxOut[1].LockingScript)
	if err != nil {
		t.Fatalf("Failed to recognize change script : %s", err)
	}

	if !standard.(bitcoin.P2PK).PublicKey.Equal(sender.PublicKey()) {
		t.Fatalf("Change should pay the sender")
	}

	if !blockchain.ValidateInput(tx, 0, tx.TxIn[0].UnlockingScript, lockingScript, 100) {
		t.Fatalf("Transfer input should validate")
	}
}

func TestBuildTransferInsufficientBalance(t *testing.T) {
	key, err := bitcoin.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}

	sender := NewAccount(0, key)
	sender.Balance = 10

	recipientKey, err := bitcoin.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}

	if _, err := sender.BuildTransfer(recipientKey.PublicKey(),
		11); errors.Cause(err) != ErrInsufficientBalance {
		t.Fatalf("Expected insufficient balance : %v", err)
	}
}
