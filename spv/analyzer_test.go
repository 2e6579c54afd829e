package spv

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func mustAddr(t *testing.T, hash160 byte) btcutil.Address {
	t.Helper()
	var h [20]byte
	h[0] = hash160
	addr, err := btcutil.NewAddressPubKeyHash(h[:], &chaincfg.TestNet3Params)
	require.NoError(t, err)
	return addr
}

// TestAnalyzeOutputsSumsAndExtractsMemo is scenario E4: a transaction with
// one OP_RETURN memo output and two outputs to the target address sums
// the target outputs and records the first-seen memo exactly once.
func TestAnalyzeOutputsSumsAndExtractsMemo(t *testing.T) {
	target := mustAddr(t, 0x01)
	other := mustAddr(t, 0x02)

	targetScript, err := txscript.PayToAddrScript(target)
	require.NoError(t, err)
	otherScript, err := txscript.PayToAddrScript(other)
	require.NoError(t, err)

	memo := []byte("0x000000000000000000000000000000000000aa")
	opReturnScript, err := txscript.NullDataScript(memo)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(10_000, targetScript))
	tx.AddTxOut(wire.NewTxOut(5_000, otherScript))
	tx.AddTxOut(wire.NewTxOut(0, opReturnScript))
	tx.AddTxOut(wire.NewTxOut(20_000, targetScript))

	res := AnalyzeOutputs(tx, target, &chaincfg.TestNet3Params)
	require.Equal(t, int64(30_000), res.TotalSats)
	require.True(t, res.HasMemo)
	require.Equal(t, memo, res.Memo)
}

// TestAnalyzeOutputsFirstMemoWins ensures a second OP_RETURN output never
// overwrites the first recorded memo.
func TestAnalyzeOutputsFirstMemoWins(t *testing.T) {
	target := mustAddr(t, 0x03)
	targetScript, err := txscript.PayToAddrScript(target)
	require.NoError(t, err)

	first, err := txscript.NullDataScript([]byte("first"))
	require.NoError(t, err)
	second, err := txscript.NullDataScript([]byte("second"))
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(1000, targetScript))
	tx.AddTxOut(wire.NewTxOut(0, first))
	tx.AddTxOut(wire.NewTxOut(0, second))

	res := AnalyzeOutputs(tx, target, &chaincfg.TestNet3Params)
	require.Equal(t, []byte("first"), res.Memo)
}

// TestRequireMemoUTF8Absent is the mint-path abort rule in §4.7.
func TestRequireMemoUTF8Absent(t *testing.T) {
	_, err := RequireMemoUTF8(AnalyzeResult{})
	require.Error(t, err)
}

func TestRequireMemoUTF8Invalid(t *testing.T) {
	_, err := RequireMemoUTF8(AnalyzeResult{HasMemo: true, Memo: []byte{0xff, 0xfe, 0xfd}})
	require.Error(t, err)
}
