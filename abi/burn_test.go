package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEncodeBurnLayout checks each fixed-offset field against §4.8's
// manual layout and the total-length formula.
func TestEncodeBurnLayout(t *testing.T) {
	addr := "tb1qzfqwyxc70pmlw7l7vmx9nmhmqtgh5z3lp3j9hf"
	out := EncodeBurn(BurnValues{
		AmountSat:     50_000,
		IsValid:       true,
		BurnerBTCAddr: addr,
	})

	wantPadded := ((len(addr) + 31) / 32) * 32
	require.Len(t, out, 128+wantPadded)

	require.Equal(t, byte(0x60), out[31])
	require.Equal(t, byte(50_000>>8), out[62])
	require.Equal(t, byte(50_000&0xff), out[63])
	require.Equal(t, byte(1), out[95])
	require.Equal(t, byte(len(addr)), out[127])
	require.Equal(t, []byte(addr), out[128:128+len(addr)])

	for i := 128 + len(addr); i < len(out); i++ {
		require.Equal(t, byte(0), out[i], "padding byte %d must be zero", i)
	}
}

// TestEncodeBurnEmptyString still produces the minimum 128-byte prefix
// plus a zero-length (but still 32-byte-padded-to-zero) string segment.
func TestEncodeBurnEmptyString(t *testing.T) {
	out := EncodeBurn(BurnValues{AmountSat: 1, IsValid: false})
	require.Len(t, out, 128)
	require.Equal(t, byte(0), out[127])
}
