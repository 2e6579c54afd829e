package abi

import (
	"github.com/holiman/uint256"
)

// BurnValues are the public values a burn guest commits.
type BurnValues struct {
	AmountSat     uint64
	IsValid       bool
	BurnerBTCAddr string
}

const wordSize = 32

// EncodeBurn lays out the burn public values manually, matching Solidity's
// ABI encoding of a (string addr, uint256 amount, bool is_valid) tuple by
// hand rather than through go-ethereum's abi package, which does not
// expose an ergonomic way to combine a dynamic string with this exact
// field order:
//
//	0x00..0x20 offset to the string (always 0x60)
//	0x20..0x40 amount, big-endian uint256
//	0x40..0x60 is_valid, 0 or 1
//	0x60..0x80 string byte length
//	0x80..     UTF-8 bytes, zero-padded up to a 32-byte boundary
func EncodeBurn(v BurnValues) []byte {
	addrBytes := []byte(v.BurnerBTCAddr)
	paddedLen := ((len(addrBytes) + wordSize - 1) / wordSize) * wordSize

	out := make([]byte, 128+paddedLen)

	offset := uint256.NewInt(0x60)
	copy(out[0:32], offset.Bytes32()[:])

	amount := uint256.NewInt(v.AmountSat)
	copy(out[32:64], amount.Bytes32()[:])

	if v.IsValid {
		out[95] = 1 // last byte of the 0x40..0x60 word
	}

	strLen := uint256.NewInt(uint64(len(addrBytes)))
	copy(out[96:128], strLen.Bytes32()[:])

	copy(out[128:], addrBytes)

	return out
}
