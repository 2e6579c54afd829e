package guest

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/btcbridge/tse-core/abi"
	"github.com/btcbridge/tse-core/bridgeerr"
	"github.com/btcbridge/tse-core/spv"
)

// Burn sequences the burn-path guest: parse the transaction, sum its
// outputs to bundle.BurnerBTCAddr, verify Merkle inclusion and the header
// chain, and ABI-encode the public values. Unlike Mint, no OP_RETURN memo
// is required or inspected.
func Burn(bundle BundleInfo) ([]byte, error) {
	if !bundle.HasBurnerBTCAddr {
		return nil, bridgeerr.New(bridgeerr.KindMemo, "burn bundle carries no burner_btc_address")
	}
	target, err := btcutil.DecodeAddress(bundle.BurnerBTCAddr, &network)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindAddressParse, "decode burner btc address", err)
	}

	rawTx, err := decodeHex(bundle.RawTxHex)
	if err != nil {
		return nil, err
	}
	tx, txid, err := spv.ParseTransaction(rawTx)
	if err != nil {
		return nil, err
	}

	analysis := spv.AnalyzeOutputs(tx, target, &network)

	if len(bundle.Chain.Blocks) == 0 {
		return nil, bridgeerr.New(bridgeerr.KindChainLength, "bundle carries no header chain")
	}
	headers, err := bundle.Chain.toHeaderInputs()
	if err != nil {
		return nil, err
	}
	proof, err := bundle.MerkleProof.toMerkleProof()
	if err != nil {
		return nil, err
	}
	if !spv.VerifyMerkleInclusion(txid, proof, headers[0].MerkleRoot) {
		return nil, bridgeerr.New(bridgeerr.KindMerkleInclusion, "transaction not included under the chain's first block merkle root")
	}
	if err := spv.VerifyHeaderChain(headers); err != nil {
		return nil, err
	}

	return abi.EncodeBurn(abi.BurnValues{
		AmountSat:     uint64(analysis.TotalSats),
		IsValid:       true,
		BurnerBTCAddr: bundle.BurnerBTCAddr,
	}), nil
}
