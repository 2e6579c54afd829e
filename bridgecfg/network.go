// Package bridgecfg resolves the bridge's network configuration: which
// Bitcoin chaincfg.Params a deployment targets, the dust limit, and the
// expected header-chain length (the vbyte fee constants live in
// txbuilder). It is adapted from the teacher's own shell/btcsuite network-name
// switch, generalized to the network names this bridge actually supports.
package bridgecfg

import (
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// Params resolves one of "mainnet", "testnet", "signet", or "regtest" to
// its btcsuite chaincfg.Params. Unlike the teacher's ParamsToBtc (which
// silently falls back to mainnet for anything unrecognized), an unknown
// name is a hard error: a bridge that cannot identify its own network
// must not build transactions or addresses as though it were one.
func Params(networkName string) (*chaincfg.Params, error) {
	switch networkName {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, bridgeerr.New(bridgeerr.KindInvalidNetwork, "unrecognized network name: "+networkName)
	}
}

// DustLimit is the minimum non-dust change output value, in satoshis.
const DustLimit = 546

// ExpectedChainLength is the number of headers a bridge proof must supply.
const ExpectedChainLength = 6
