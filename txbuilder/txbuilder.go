// Package txbuilder constructs unsigned v2 Taproot key-path single-input
// transactions, computes the BIP-341 key-spend sighash, derives BIP-86
// Taproot addresses, and assembles the final witness once a signature is
// available (C4). It is built directly on the upstream
// github.com/btcsuite/btcd wire/txscript/btcutil/chaincfg packages rather
// than any chain-specific fork.
package txbuilder

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcbridge/tse-core/bridgecfg"
	"github.com/btcbridge/tse-core/bridgeerr"
)

// DustLimit is the minimum output value (sats) below which an output is
// considered uneconomical to relay/spend; see §4.4.
const DustLimit = bridgecfg.DustLimit

// Fee estimation constants, §4.4: an estimated vbyte cost per input,
// per output, plus fixed overhead.
const (
	vbytesPerInput    = 58
	vbytesPerOutput   = 43
	vbytesOverhead    = 10
)

// UTXO is the single input this builder ever spends.
type UTXO struct {
	Txid         chainhash.Hash
	Vout         uint32
	Value        int64
	ScriptPubKey []byte
}

// BuildParams are the inputs to PrepareUnsignedTxAndSighash.
type BuildParams struct {
	UTXO           UTXO
	RecipientAddr  string
	SendAmountSats int64
	FeeRateSatVB   int64
	ChangeAddr     string
	Network        *chaincfg.Params
}

// EstimateVBytes returns the estimated virtual size of a 1-input,
// nOutputs-output Taproot key-path transaction, per §4.4's formula.
func EstimateVBytes(nOutputs int) int64 {
	return vbytesPerInput + vbytesPerOutput*int64(nOutputs) + vbytesOverhead
}

// PrepareUnsignedTxAndSighash builds the unsigned transaction described in
// §4.4 and computes its 32-byte BIP-341 key-spend SIGHASH_ALL sighash.
//
// Fee/change policy: a 2-output transaction (recipient + change) is
// costed first; if the resulting change value would be dust (<546 sats)
// or negative, the change output is dropped and the whole leftover (UTXO
// value minus send amount) becomes the fee, not a larger send amount.
// Insufficient is returned only when the UTXO value is below the send
// amount itself; a leftover smaller than the fee estimate is not rejected.
func PrepareUnsignedTxAndSighash(p BuildParams) (*wire.MsgTx, [32]byte, error) {
	if p.Network == nil {
		return nil, [32]byte{}, bridgeerr.New(bridgeerr.KindInvalidNetwork, "network params required")
	}

	recipientScript, err := addressToScript(p.RecipientAddr, p.Network)
	if err != nil {
		return nil, [32]byte{}, err
	}

	feeTwoOutputs := EstimateVBytes(2) * p.FeeRateSatVB
	changeValue := p.UTXO.Value - p.SendAmountSats - feeTwoOutputs

	tx := wire.NewMsgTx(2)
	tx.LockTime = 0
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: p.UTXO.Txid, Index: p.UTXO.Vout},
		SignatureScript:  nil,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(p.SendAmountSats, recipientScript))

	switch {
	case changeValue >= DustLimit:
		changeScript, err := addressToScript(p.ChangeAddr, p.Network)
		if err != nil {
			return nil, [32]byte{}, err
		}
		tx.AddTxOut(wire.NewTxOut(changeValue, changeScript))
	default:
		// Change would be dust, or the two-output fee estimate alone
		// already exceeds the leftover: either way there is no change
		// output. The entire leftover becomes the fee; the only hard
		// failure is not having enough to cover the send amount itself.
		if p.UTXO.Value < p.SendAmountSats {
			return nil, [32]byte{}, bridgeerr.New(bridgeerr.KindInsufficient, "utxo value insufficient for send amount")
		}
	}

	sighash, err := computeSighash(tx, p.UTXO)
	if err != nil {
		return nil, [32]byte{}, err
	}
	log.Debugf("prepared unsigned tx spending %s:%d, send=%d", p.UTXO.Txid, p.UTXO.Vout, p.SendAmountSats)
	return tx, sighash, nil
}

func computeSighash(tx *wire.MsgTx, utxo UTXO) ([32]byte, error) {
	fetcher := txscript.NewCannedPrevOutputFetcher(utxo.ScriptPubKey, utxo.Value)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	digest, err := txscript.CalcTaprootSignatureHash(sigHashes, txscript.SigHashAll, tx, 0, fetcher)
	if err != nil {
		return [32]byte{}, bridgeerr.Wrap(bridgeerr.KindSighash, "compute taproot key-path sighash", err)
	}
	var out [32]byte
	copy(out[:], digest)
	return out, nil
}

// FinalizeSignedTxFromHex inserts sig into tx's (sole) input witness.
// sig must be 64 bytes (sighash type ALL, the default: no suffix byte) or
// 65 bytes with an explicit trailing sighash-type byte 0x01, passed
// through unchanged; any other length, or a 65-byte signature with any
// other final byte, fails with SigLength.
func FinalizeSignedTxFromHex(tx *wire.MsgTx, sig []byte) error {
	if len(tx.TxIn) != 1 {
		return bridgeerr.New(bridgeerr.KindGeneral, "only single-input transactions are supported")
	}
	switch len(sig) {
	case 64:
	case 65:
		if sig[64] != 0x01 {
			return bridgeerr.New(bridgeerr.KindSigLength, "65-byte signature must end in sighash type 0x01")
		}
	default:
		return bridgeerr.New(bridgeerr.KindSigLength, "signature must be 64 or 65 bytes")
	}
	tx.TxIn[0].Witness = wire.TxWitness{append([]byte(nil), sig...)}
	return nil
}

// DeriveTaprootAddress produces the BIP-86 key-path-only Taproot address
// for pubKeyBytes (either a 33-byte compressed key, prefix stripped, or
// a 32-byte x-only key) on the given network, using an empty script tree.
func DeriveTaprootAddress(pubKeyBytes []byte, network *chaincfg.Params) (string, error) {
	xOnly, err := toXOnlyBytes(pubKeyBytes)
	if err != nil {
		return "", err
	}
	internalKey, err := schnorr.ParsePubKey(xOnly[:])
	if err != nil {
		return "", bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse internal key", err)
	}

	outputKey := txscript.ComputeTaprootOutputKey(internalKey, nil)
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), network)
	if err != nil {
		return "", bridgeerr.Wrap(bridgeerr.KindAddressParse, "build taproot address", err)
	}
	return addr.EncodeAddress(), nil
}

func toXOnlyBytes(pubKeyBytes []byte) ([32]byte, error) {
	var out [32]byte
	switch len(pubKeyBytes) {
	case 32:
		copy(out[:], pubKeyBytes)
	case 33:
		copy(out[:], pubKeyBytes[1:])
	default:
		return out, bridgeerr.New(bridgeerr.KindSecp256k1, "public key must be 32 (x-only) or 33 (compressed) bytes")
	}
	return out, nil
}

func addressToScript(addr string, network *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, network)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindAddressParse, "decode address", err)
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindAddressParse, "build scriptPubKey", err)
	}
	return script, nil
}
