package guest

import (
	"encoding/hex"

	"github.com/btcbridge/tse-core/bridgeerr"
)

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode hex field", err)
	}
	return b, nil
}
