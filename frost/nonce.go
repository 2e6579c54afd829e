package frost

import (
	"crypto/rand"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
)

// SigningNonces is the single-use hiding/binding nonce pair produced by
// signing round 1. It MUST be consumed exactly once by round 2.
type SigningNonces struct {
	Hiding  btcec.ModNScalar
	Binding btcec.ModNScalar
}

// SigningCommitments are the public commitments to a SigningNonces pair,
// broadcast to all co-signers.
type SigningCommitments struct {
	Identifier Identifier
	Hiding     btcec.PublicKey
	Binding    btcec.PublicKey
}

// GenerateNonces samples a fresh hiding/binding nonce pair for signer id,
// binding the randomness to the participant's signing share so that a
// weak system RNG alone cannot fully determine the nonce (mirrors the
// extra-randomness-plus-secret-material construction in the FROST draft's
// reference nonce generation).
func GenerateNonces(id Identifier, signingShare *btcec.ModNScalar) (*SigningNonces, *SigningCommitments, error) {
	hiding, err := nonceScalar(id, signingShare, "hiding")
	if err != nil {
		return nil, nil, err
	}
	binding, err := nonceScalar(id, signingShare, "binding")
	if err != nil {
		return nil, nil, err
	}

	nonces := &SigningNonces{Hiding: hiding, Binding: binding}

	var hidingPoint, bindingPoint btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&hiding, &hidingPoint)
	hidingPoint.ToAffine()
	btcec.ScalarBaseMultNonConst(&binding, &bindingPoint)
	bindingPoint.ToAffine()

	commitments := &SigningCommitments{
		Identifier: id,
		Hiding:     *btcec.NewPublicKey(&hidingPoint.X, &hidingPoint.Y),
		Binding:    *btcec.NewPublicKey(&bindingPoint.X, &bindingPoint.Y),
	}
	return nonces, commitments, nil
}

func nonceScalar(id Identifier, signingShare *btcec.ModNScalar, label string) (btcec.ModNScalar, error) {
	var random [32]byte
	if _, err := rand.Read(random[:]); err != nil {
		return btcec.ModNScalar{}, err
	}
	shareBytes := signingShare.Bytes()

	h := sha256.New()
	h.Write([]byte("FROST/nonce/" + label))
	h.Write(random[:])
	h.Write(shareBytes[:])
	h.Write([]byte(id.Hex()))
	digest := h.Sum(nil)

	var s btcec.ModNScalar
	for {
		overflow := s.SetByteSlice(digest)
		if !overflow && !s.IsZero() {
			return s, nil
		}
		digest = sha256.New().Sum(digest)
	}
}
