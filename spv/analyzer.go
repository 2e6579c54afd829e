package spv

import (
	"bytes"
	"math"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// scriptVersion is the base (non-Taproot-annex) script version used by
// txscript.MakeScriptTokenizer; output scripts are evaluated the same way
// regardless of what spends them.
const scriptVersion = 0

// AnalyzeResult is the outcome of walking a transaction's outputs: the
// saturating-sum of value sent to target, and the first OP_RETURN payload
// encountered, if any.
type AnalyzeResult struct {
	TotalSats int64
	Memo      []byte
	HasMemo   bool
}

// ParseTransaction decodes a raw Bitcoin transaction and returns both the
// parsed message and its txid, computed the standard way (double-SHA256 of
// the non-witness serialization).
func ParseTransaction(rawTx []byte) (*wire.MsgTx, chainhash.Hash, error) {
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return nil, chainhash.Hash{}, bridgeerr.Wrap(bridgeerr.KindTxParse, "decode raw bitcoin transaction", err)
	}
	return &tx, tx.TxHash(), nil
}

// AnalyzeOutputs walks every output of tx: OP_RETURN outputs contribute at
// most one recorded memo (the first one seen); every other output that
// decodes to target under params has its value saturating-added to the
// running total.
func AnalyzeOutputs(tx *wire.MsgTx, target btcutil.Address, params *chaincfg.Params) AnalyzeResult {
	var res AnalyzeResult
	for _, out := range tx.TxOut {
		if isOpReturn(out.PkScript) {
			if !res.HasMemo {
				if data, ok := extractOpReturnData(out.PkScript); ok {
					res.Memo = data
					res.HasMemo = true
				}
			}
			continue
		}

		_, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, params)
		if err != nil || len(addrs) != 1 {
			continue
		}
		if addrs[0].EncodeAddress() != target.EncodeAddress() {
			continue
		}
		res.TotalSats = saturatingAdd(res.TotalSats, out.Value)
	}
	return res
}

func isOpReturn(pkScript []byte) bool {
	return len(pkScript) > 0 && pkScript[0] == txscript.OP_RETURN
}

// extractOpReturnData walks pkScript with the standard script instruction
// iterator: the first instruction must be OP_RETURN and the second a data
// push (OP_0 through OP_PUSHDATA4), whose bytes are returned; any later
// instructions are ignored.
func extractOpReturnData(pkScript []byte) ([]byte, bool) {
	tok := txscript.MakeScriptTokenizer(scriptVersion, pkScript)
	if !tok.Next() || tok.Opcode() != txscript.OP_RETURN {
		return nil, false
	}
	if !tok.Next() || tok.Opcode() > txscript.OP_PUSHDATA4 {
		return nil, false
	}
	data := append([]byte(nil), tok.Data()...)
	return data, true
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

// RequireMemoUTF8 returns memo as a valid UTF-8 string, aborting (per
// §4.7's mint-path requirement) if it is absent or not valid UTF-8.
func RequireMemoUTF8(res AnalyzeResult) (string, error) {
	if !res.HasMemo {
		return "", bridgeerr.New(bridgeerr.KindMemo, "mint transaction carries no OP_RETURN memo")
	}
	if !utf8.Valid(res.Memo) {
		return "", bridgeerr.New(bridgeerr.KindMemo, "OP_RETURN memo is not valid UTF-8")
	}
	return string(res.Memo), nil
}
