package guest

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/btcbridge/tse-core/abi"
)

// buildSixHeaderChain returns six correctly-linked headers whose first
// block's merkle_root is root, matching what Mint/Burn expect to verify
// inclusion against.
func buildSixHeaderChain(t *testing.T, root chainhash.Hash) Chain {
	t.Helper()

	blocks := make([]Block, 6)
	parent := chainhash.Hash{}
	for i := 0; i < 6; i++ {
		merkleRoot := root
		if i != 0 {
			merkleRoot = chainhash.Hash{byte(i), 0xEE}
		}
		h := wire.BlockHeader{
			Version:    1,
			PrevBlock:  parent,
			MerkleRoot: merkleRoot,
			Timestamp:  time.Unix(1700000000+int64(i*600), 0),
			Bits:       0x1d00ffff,
			Nonce:      uint32(i),
		}
		hash := h.BlockHash()
		blocks[i] = Block{
			BlockHash:  hash.String(),
			Version:    h.Version,
			ParentHash: parent.String(),
			MerkleRoot: merkleRoot.String(),
			Timestamp:  uint32(h.Timestamp.Unix()),
			Difficulty: h.Bits,
			Nonce:      h.Nonce,
		}
		parent = hash
	}
	return Chain{Blocks: blocks}
}

func rawTxHex(t *testing.T, tx *wire.MsgTx) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

// TestMintHappyPath is scenario E4: a deposit to the bridge address with a
// valid checksummed memo, correctly included and chained, mints.
func TestMintHappyPath(t *testing.T) {
	depositAddr, err := decodeTestAddress(bridgeAddress)
	require.NoError(t, err)
	depositScript, err := txscript.PayToAddrScript(depositAddr)
	require.NoError(t, err)

	memo := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	opReturn, err := txscript.NullDataScript([]byte(memo))
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{}, Sequence: wire.MaxTxInSequenceNum})
	tx.AddTxOut(wire.NewTxOut(75_000, depositScript))
	tx.AddTxOut(wire.NewTxOut(0, opReturn))

	txid := tx.TxHash()
	chain := buildSixHeaderChain(t, txid)

	bundle := BundleInfo{
		RawTxHex:    rawTxHex(t, tx),
		MerkleProof: MerkleProofInput{Siblings: nil, Pos: 0},
		Chain:       chain,
	}

	out, err := Mint(bundle)
	require.NoError(t, err)
	require.Len(t, out, 128)

	var txIDBytes [32]byte
	for i := range txid {
		txIDBytes[31-i] = txid[i]
	}
	want, err := abi.EncodeMint(abi.MintValues{
		TxID:      txIDBytes,
		Depositer: mustEVMAddr(t, memo),
		AmountSat: 75_000,
		IsValid:   true,
	})
	require.NoError(t, err)
	require.Equal(t, want, out)
}

// TestMintMissingMemoAborts is §4.7's mint-path abort rule.
func TestMintMissingMemoAborts(t *testing.T) {
	depositAddr, err := decodeTestAddress(bridgeAddress)
	require.NoError(t, err)
	depositScript, err := txscript.PayToAddrScript(depositAddr)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{}, Sequence: wire.MaxTxInSequenceNum})
	tx.AddTxOut(wire.NewTxOut(75_000, depositScript))

	txid := tx.TxHash()
	chain := buildSixHeaderChain(t, txid)

	bundle := BundleInfo{
		RawTxHex:    rawTxHex(t, tx),
		MerkleProof: MerkleProofInput{Siblings: nil, Pos: 0},
		Chain:       chain,
	}

	_, err = Mint(bundle)
	require.Error(t, err)
}

// TestBurnHappyPath is scenario E4's burn counterpart.
func TestBurnHappyPath(t *testing.T) {
	burnerAddr := "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	addr, err := decodeTestAddress(burnerAddr)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{}, Sequence: wire.MaxTxInSequenceNum})
	tx.AddTxOut(wire.NewTxOut(40_000, script))

	txid := tx.TxHash()
	chain := buildSixHeaderChain(t, txid)

	bundle := BundleInfo{
		RawTxHex:         rawTxHex(t, tx),
		MerkleProof:      MerkleProofInput{Siblings: nil, Pos: 0},
		Chain:            chain,
		BurnerBTCAddr:    burnerAddr,
		HasBurnerBTCAddr: true,
	}

	out, err := Burn(bundle)
	require.NoError(t, err)

	want := abi.EncodeBurn(abi.BurnValues{AmountSat: 40_000, IsValid: true, BurnerBTCAddr: burnerAddr})
	require.Equal(t, want, out)
}
