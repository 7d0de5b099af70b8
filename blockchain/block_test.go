package blockchain

import (
	"testing"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/wire"
)

// Mainnet block 100000: 000000000003ba27aa200b1cecaad478d2b00432346c3f1f3986da1afd33e506
func testBlock100000(t *testing.T) *wire.MsgBlock {
	t.Helper()

	block := wire.NewMsgBlock(wire.BlockHeader{
		Height:     100000,
		Version:    1,
		PrevBlock:  mustHash32(t, "000000000002d01c1fccc21636b607dfd930d31d01c3a62104612a1719011250"),
		MerkleRoot: mustHash32(t, "f3e94742aca4b5ef85488dc37c06c3282295ffec960994b2c0d5ac2a25a95766"),
		Timestamp:  1293623863,
		Bits:       0x1b04864c,
		Nonce:      0x10572b0f,
	})

	// Coinbase: 8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		UnlockingScript:  pushScript(t, "4c86041b", "0602"),
		Sequence:         0xffffffff,
	})
	coinbase.AddTxOut(wire.NewTxOut(5000000000, p2pkScript(t,
		"041b0e8c2567c12536aa13357b79a073dc4444acb83c4ec7a0e2f99dd7457516c5817242da796924ca4e99947d087fedf9ce467cb9f7c6287078f801df276fdf84")))
	block.AddTransaction(coinbase)

	// fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4
	tx2 := wire.NewMsgTx(1)
	tx2.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  mustHash32(t, "87a157f3fd88ac7907c05fc55e271dc4acdc5605d187d646604ca8c0e9382e03"),
			Index: 0,
		},
		UnlockingScript: pushScript(t,
			"3046022100c352d3dd993a981beba4a63ad15c209275ca9470abfcd57da93b58e4eb5dce82022100840792bc1f456062819f15d33ee7055cf7b5ee1af1ebcc6028d9cdb1c3af774801",
			"04f46db5e9d61a9dc27b8d64ad23e7383a4e6ca164593c2527c038c0857eb67ee8e825dca65046b82c9331586c82e0fd1f633f25f87c161bc6f8a630121df2b3d3"),
		Sequence: 0xffffffff,
	})
	tx2.AddTxOut(wire.NewTxOut(556000000, p2pkhScript(t, "c398efa9c392ba6013c5e04ee729755ef7f58b32")))
	tx2.AddTxOut(wire.NewTxOut(4444000000, p2pkhScript(t, "948c765a6914d43f2a7ac177da2c2f6b52de3d7c")))
	block.AddTransaction(tx2)

	// 6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4
	tx3 := wire.NewMsgTx(1)
	tx3.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  mustHash32(t, "cf4e2978d0611ce46592e02d7e7daf8627a316ab69759a9f3df109a7f2bf3ec3"),
			Index: 1,
		},
		UnlockingScript: pushScript(t,
			"30440220032d30df5ee6f57fa46cddb5eb8d0d9fe8de6b342d27942ae90a3231e0ba333e02203deee8060fdc70230a7f5b4ad7d7bc3e628cbe219a886b84269eaeb81e26b4fe01",
			"04ae31c31bf91278d99b8377a35bbce5b27d9fff15456839e919453fc7b3f721f0ba403ff96c9deeb680e5fd341c0fc3a7b90da4631ee39560639db462e9cb850f"),
		Sequence: 0xffffffff,
	})
	tx3.AddTxOut(wire.NewTxOut(1000000, p2pkhScript(t, "b0dcbf97eabf4404e31d952477ce822dadbe7e10")))
	tx3.AddTxOut(wire.NewTxOut(299000000, p2pkhScript(t, "6b1281eec25ab4e1e0793ff4e08ab1abb3409cd9")))
	block.AddTransaction(tx3)

	// e9a66845e05d5abc0ad04ec80f774a7e585c6e8db975962d069a522137b80c1d
	tx4 := wire.NewMsgTx(1)
	tx4.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  mustHash32(t, "f4515fed3dc4a19b90a317b9840c243bac26114cf637522373a7d486b372600b"),
			Index: 0,
		},
		UnlockingScript: pushScript(t,
			"3046022100bb1ad26df930a51cce110cf44f7a48c3c561fd977500b1ae5d6b6fd13d0b3f4a022100c5b42951acedff14abba2736fd574bdb465f3e6f8da12e2c5303954aca7f78f301",
			"04a7135bfe824c97ecc01ec7d7e336185c81e2aa2c41ab175407c09484ce9694b44953fcb751206564a9c24dd094d42fdbfdd5aad3e063ce6af4cfaaea4ea14fbb"),
		Sequence: 0xffffffff,
	})
	tx4.AddTxOut(wire.NewTxOut(1000000, p2pkhScript(t, "39aa3d569e06a1d7926dc4be1193c99bf2eb9ee0")))
	block.AddTransaction(tx4)

	return block
}

func testBlock100000Outpoints(t *testing.T) UTXOSet {
	t.Helper()

	outpoints := NewUTXOSet()
	outpoints.Add(wire.OutPoint{
		Hash:  mustHash32(t, "87a157f3fd88ac7907c05fc55e271dc4acdc5605d187d646604ca8c0e9382e03"),
		Index: 0,
	}, wire.NewTxOut(5000000000, p2pkhScript(t, "71d7dd96d9edda09180fe9d57a477b5acc9cad11")))
	outpoints.Add(wire.OutPoint{
		Hash:  mustHash32(t, "cf4e2978d0611ce46592e02d7e7daf8627a316ab69759a9f3df109a7f2bf3ec3"),
		Index: 1,
	}, wire.NewTxOut(300000000, p2pkhScript(t, "35fbee6a3bf8d99f17724ec54787567393a8a6b1")))
	outpoints.Add(wire.OutPoint{
		Hash:  mustHash32(t, "f4515fed3dc4a19b90a317b9840c243bac26114cf637522373a7d486b372600b"),
		Index: 0,
	}, wire.NewTxOut(1000000, p2pkhScript(t, "c4eb47ecfdcf609a1848ee79acc2fa49d3caad70")))
	return outpoints
}

func TestValidateBlock100000(t *testing.T) {
	block := testBlock100000(t)
	outpoints := testBlock100000Outpoints(t)

	root := bitcoin.MerkleRoot(block.TxHashes())
	if !root.Equal(&block.Header.MerkleRoot) {
		t.Fatalf("Wrong merkle root\ngot:%s\nwant:%s", root, block.Header.MerkleRoot)
	}

	if !ValidateBlock(block, outpoints) {
		t.Fatalf("Block 100000 should validate")
	}
}

func TestValidateBlockMissingOutpoint(t *testing.T) {
	block := testBlock100000(t)
	outpoints := testBlock100000Outpoints(t)

	outpoints.Spend(wire.OutPoint{
		Hash:  mustHash32(t, "87a157f3fd88ac7907c05fc55e271dc4acdc5605d187d646604ca8c0e9382e03"),
		Index: 0,
	})

	if ValidateBlock(block, outpoints) {
		t.Fatalf("Block spending a missing outpoint should not validate")
	}
}

func TestValidateBlockWrongMerkleRoot(t *testing.T) {
	block := testBlock100000(t)
	block.Header.MerkleRoot[0] ^= 0x01

	if ValidateBlock(block, testBlock100000Outpoints(t)) {
		t.Fatalf("Block with a wrong merkle root should not validate")
	}
}

func TestValidateBlockOverspend(t *testing.T) {
	block := testBlock100000(t)
	outpoints := testBlock100000Outpoints(t)

	// Shrink a spent output's value below the spending transaction's output
	// sum. Legacy signatures don't commit to the value so only the sum check
	// can catch this.
	outpoint := wire.OutPoint{
		Hash:  mustHash32(t, "87a157f3fd88ac7907c05fc55e271dc4acdc5605d187d646604ca8c0e9382e03"),
		Index: 0,
	}
	output, _ := outpoints.Get(outpoint)
	output.Value = 1000

	if ValidateBlock(block, outpoints) {
		t.Fatalf("Block spending more than its inputs should not validate")
	}
}

func TestValidateEmptyBlock(t *testing.T) {
	block := wire.NewMsgBlock(wire.BlockHeader{})
	if ValidateBlock(block, NewUTXOSet()) {
		t.Fatalf("Block without a coinbase should not validate")
	}
}

func TestUTXOSetCopy(t *testing.T) {
	set := NewUTXOSet()
	outpoint := wire.OutPoint{Index: 1}
	set.Add(outpoint, wire.NewTxOut(100, nil))

	snapshot := set.Copy()
	set.Spend(outpoint)

	if _, exists := snapshot.Get(outpoint); !exists {
		t.Fatalf("Snapshot should be independent of the source set")
	}
}
