package guest

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/btcbridge/tse-core/spv"
)

func decodeTestAddress(addr string) (btcutil.Address, error) {
	return btcutil.DecodeAddress(addr, &network)
}

func mustEVMAddr(t *testing.T, memo string) common.Address {
	t.Helper()
	addr, err := spv.ParseChecksummedEVMAddress(memo)
	require.NoError(t, err)
	return addr
}
