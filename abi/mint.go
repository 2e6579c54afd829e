// Package abi encodes the public values a guest program commits for its
// EVM-side verifier contract: a static ABI tuple for mint, and a manually
// laid out dynamic-string record for burn (§4.8).
package abi

import (
	"math/big"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// MintValues are the four public values a mint guest commits.
type MintValues struct {
	TxID      [32]byte
	Depositer common.Address
	AmountSat uint64
	IsValid   bool
}

var mintArgs = gethabi.Arguments{
	mustArg("bytes32"),
	mustArg("address"),
	mustArg("uint256"),
	mustArg("bool"),
}

func mustArg(solType string) gethabi.Argument {
	t, err := gethabi.NewType(solType, "", nil)
	if err != nil {
		panic("abi: invalid static type " + solType)
	}
	return gethabi.Argument{Type: t}
}

// EncodeMint produces the standard Solidity ABI encoding of
// (bytes32 tx_id, address depositer, uint256 amount, bool is_valid). The
// tuple is entirely static, so the result is always exactly 128 bytes.
func EncodeMint(v MintValues) ([]byte, error) {
	packed, err := mintArgs.Pack(v.TxID, v.Depositer, new(big.Int).SetUint64(v.AmountSat), v.IsValid)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindABI, "abi-encode mint public values", err)
	}
	if len(packed) != 128 {
		return nil, bridgeerr.New(bridgeerr.KindABI, "mint public values encoded to unexpected length")
	}
	return packed, nil
}
