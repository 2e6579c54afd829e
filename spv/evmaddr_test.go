package spv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseChecksummedEVMAddressAccepts checks a correctly-checksummed
// EIP-55 address round-trips.
func TestParseChecksummedEVMAddressAccepts(t *testing.T) {
	// A well-known EIP-55 checksummed test vector.
	addr, err := ParseChecksummedEVMAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.Hex())
}

// TestParseChecksummedEVMAddressAcceptsAllLowercase is EIP-55's own rule:
// an all-lowercase body carries no checksum information and must be
// accepted, not rejected as a bad checksum.
func TestParseChecksummedEVMAddressAcceptsAllLowercase(t *testing.T) {
	addr, err := ParseChecksummedEVMAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.Hex())
}

// TestParseChecksummedEVMAddressAcceptsAllUppercase mirrors the
// all-lowercase case for an all-uppercase body.
func TestParseChecksummedEVMAddressAcceptsAllUppercase(t *testing.T) {
	addr, err := ParseChecksummedEVMAddress("0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	require.NoError(t, err)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.Hex())
}

// TestParseChecksummedEVMAddressRejectsBadMixedCase is scenario E4's
// failure case: a right-shape address whose mixed-case body does not
// match the EIP-55 checksum must be rejected.
func TestParseChecksummedEVMAddressRejectsBadMixedCase(t *testing.T) {
	_, err := ParseChecksummedEVMAddress("0x5aaEB6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.Error(t, err)
}

// TestParseChecksummedEVMAddressRejectsMalformed rejects non-hex memos.
func TestParseChecksummedEVMAddressRejectsMalformed(t *testing.T) {
	_, err := ParseChecksummedEVMAddress("not an address")
	require.Error(t, err)
}
