package spv

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// ParseChecksummedEVMAddress parses memo as an EVM address, the last
// step of the mint-path OP_RETURN memo rule in §4.7. Per EIP-55 itself,
// an all-lowercase or all-uppercase body carries no checksum information
// at all and is accepted outright; only a mixed-case body is held to the
// mixed-case checksum, and rejected if it doesn't match.
func ParseChecksummedEVMAddress(memo string) (common.Address, error) {
	trimmed := strings.TrimSpace(memo)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, bridgeerr.New(bridgeerr.KindEVMAddress, "memo is not a well-formed hex EVM address")
	}
	addr := common.HexToAddress(trimmed)

	body := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return addr, nil
	}

	want := "0x" + body
	if addr.Hex() != want {
		return common.Address{}, bridgeerr.New(bridgeerr.KindEVMAddress, "memo fails EIP-55 checksum validation")
	}
	return addr, nil
}
