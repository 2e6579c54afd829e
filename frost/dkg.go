package frost

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// Round1Secret is the local polynomial retained between DKG round 1 and
// round 2 (to compute directed shares) and between round 2 and round 3
// (to add this participant's own evaluation f_self(self) to its signing
// share and to supply its own commitment). Its lifetime ends when round 3
// completes.
type Round1Secret struct {
	Self       Identifier
	Threshold  uint16
	Total      uint16
	Polynomial *polynomial
}

// Round1Package is the broadcastable deliverable of DKG round 1: a
// Feldman commitment to the local polynomial plus a Schnorr proof of
// knowledge of its constant term, binding the commitment to the sender's
// identity (standard Pedersen-DKG anti-rogue-key measure).
type Round1Package struct {
	Sender          Identifier
	Commitment      []btcec.PublicKey
	ProofOfKnowledge [64]byte
}

// Round2Secret carries forward the round-1 polynomial into round 3. It
// exists as a distinct persisted record purely to gate the R1Done->R2Done
// state transition on its presence, per §9's state-machine design.
type Round2Secret struct {
	Round1Secret
}

// Round2Package is the directed share one participant sends to one peer:
// this participant's polynomial evaluated at the peer's identifier.
type Round2Package struct {
	Sender   Identifier
	Receiver Identifier
	Share    btcec.ModNScalar
}

// KeyPackage is a participant's long-lived signing material, produced by
// DKG round 3 and never mutated afterward.
type KeyPackage struct {
	Identifier     Identifier
	SigningShare   btcec.ModNScalar
	VerifyingShare btcec.PublicKey
	VerifyingKey   btcec.PublicKey // untweaked group verifying key
	Threshold      uint16
	Total          uint16
}

// PublicKeyPackage is the group-wide public material: every participant's
// verifying share plus the group verifying key. Identical content on
// every participant.
type PublicKeyPackage struct {
	VerifyingShares map[string]btcec.PublicKey // keyed by Identifier.Hex()
	VerifyingKey    btcec.PublicKey
	Threshold       uint16
	Total           uint16
}

// DKGRound1 initializes a fresh polynomial and returns the broadcast
// package. self must be non-zero and threshold <= total.
func DKGRound1(self Identifier, total, threshold uint16) (*Round1Secret, *Round1Package, error) {
	if threshold == 0 || threshold > total {
		return nil, nil, bridgeerr.New(bridgeerr.KindFrost, "threshold must be in [1, total]")
	}
	poly, err := generatePolynomial(threshold)
	if err != nil {
		return nil, nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "generate polynomial", err)
	}
	commitment := poly.commit()

	pok, err := proveKnowledge(self, &poly.coeffs[0], commitment)
	if err != nil {
		return nil, nil, err
	}

	secret := &Round1Secret{Self: self, Threshold: threshold, Total: total, Polynomial: poly}
	pkg := &Round1Package{Sender: self, Commitment: commitment, ProofOfKnowledge: pok}
	log.Debugf("DKG round 1 complete for %s (t=%d, n=%d)", self.Hex(), threshold, total)
	return secret, pkg, nil
}

// DKGRound2 verifies every peer's round-1 proof of knowledge, then
// computes this participant's directed share for each peer.
func DKGRound2(secret *Round1Secret, peerPackages []Round1Package) (*Round2Secret, []Round2Package, error) {
	for _, pp := range peerPackages {
		if pp.Sender.Equal(secret.Self) {
			continue
		}
		if err := verifyKnowledge(pp); err != nil {
			return nil, nil, err
		}
	}

	out := make([]Round2Package, 0, len(peerPackages))
	for _, pp := range peerPackages {
		if pp.Sender.Equal(secret.Self) {
			continue
		}
		x := pp.Sender.Scalar()
		share := secret.Polynomial.evaluate(&x)
		out = append(out, Round2Package{Sender: secret.Self, Receiver: pp.Sender, Share: share})
	}

	return &Round2Secret{Round1Secret: *secret}, out, nil
}

// DKGRound3 verifies every received share against the sender's round-1
// commitment, derives this participant's long-lived KeyPackage and the
// group-wide PublicKeyPackage, and returns the x-only (32-byte) group
// verifying key.
func DKGRound3(secret *Round2Secret, r1Packages []Round1Package, r2Packages []Round2Package) (*KeyPackage, *PublicKeyPackage, [32]byte, error) {
	commitments := make(map[string][]btcec.PublicKey, len(r1Packages))
	for _, p := range r1Packages {
		commitments[p.Sender.Hex()] = p.Commitment
	}
	if _, ok := commitments[secret.Self.Hex()]; !ok {
		commitments[secret.Self.Hex()] = secret.Polynomial.commit()
	}

	// This participant's own signing share starts with its self-evaluation
	// f_self(self) and accumulates every received directed share.
	selfScalar := secret.Self.Scalar()
	signingShare := secret.Polynomial.evaluate(&selfScalar)

	for _, r2 := range r2Packages {
		if !r2.Receiver.Equal(secret.Self) {
			continue
		}
		senderCommitment, ok := commitments[r2.Sender.Hex()]
		if !ok {
			return nil, nil, [32]byte{}, bridgeerr.New(bridgeerr.KindMissingData, "missing round-1 commitment for share sender")
		}
		share := r2.Share
		if err := verifyShare(secret.Self, &share, senderCommitment); err != nil {
			return nil, nil, [32]byte{}, err
		}
		signingShare.Add(&share)
	}

	// The group verifying key is the sum of every participant's constant
	// term commitment; each participant's verifying share is the sum, in
	// the exponent, of every participant's polynomial evaluated at that
	// participant's identifier.
	constants := make([]btcec.PublicKey, 0, len(commitments))
	for _, c := range commitments {
		constants = append(constants, c[0])
	}
	groupKeyPoint := sumPublicKeys(constants)
	groupVerifyingKey := *btcec.NewPublicKey(&groupKeyPoint.X, &groupKeyPoint.Y)

	var allCommitments [][]btcec.PublicKey
	for _, c := range commitments {
		allCommitments = append(allCommitments, c)
	}

	// Every participant's verifying share is the sum, in the exponent, of
	// every sender's polynomial evaluated at that participant's identifier
	// -- not just the sender matching its own identifier's commitment.
	verifyingShares := make(map[string]btcec.PublicKey, len(commitments))
	for idHex := range commitments {
		id, err := IdentifierFromHex(idHex)
		if err != nil {
			return nil, nil, [32]byte{}, err
		}
		var acc btcec.JacobianPoint
		acc.X.SetInt(0)
		acc.Y.SetInt(0)
		acc.Z.SetInt(0)
		for _, c := range allCommitments {
			p := evaluateCommitment(id, c)
			var sum btcec.JacobianPoint
			btcec.AddNonConst(&acc, &p, &sum)
			acc = sum
		}
		acc.ToAffine()
		verifyingShares[idHex] = *btcec.NewPublicKey(&acc.X, &acc.Y)
	}

	verifyingShare := verifyingShares[secret.Self.Hex()]

	kp := &KeyPackage{
		Identifier:     secret.Self,
		SigningShare:   signingShare,
		VerifyingShare: verifyingShare,
		VerifyingKey:   groupVerifyingKey,
		Threshold:      secret.Threshold,
		Total:          secret.Total,
	}
	pkp := &PublicKeyPackage{
		VerifyingShares: verifyingShares,
		VerifyingKey:    groupVerifyingKey,
		Threshold:       secret.Threshold,
		Total:           secret.Total,
	}

	log.Debugf("DKG round 3 complete for %s, group key %x", secret.Self.Hex(), XOnly(&groupVerifyingKey))
	return kp, pkp, XOnly(&groupVerifyingKey), nil
}

// XOnly returns the BIP-340 x-only (32-byte) encoding of a public key,
// stripping the 0x02/0x03 parity-prefix byte that a 33-byte compressed
// serialization would otherwise carry.
func XOnly(pub *btcec.PublicKey) [32]byte {
	var out [32]byte
	copy(out[:], schnorr.SerializePubKey(pub))
	return out
}

// proveKnowledge produces a Schnorr proof of knowledge of the polynomial's
// constant-term secret, binding it to the sender's identity and
// commitment so a malicious participant cannot reuse another's commitment.
func proveKnowledge(self Identifier, secret *btcec.ModNScalar, commitment []btcec.PublicKey) ([64]byte, error) {
	priv := privateKeyFromScalar(secret)
	msg := pokChallenge(self, commitment)
	sig, err := schnorr.Sign(priv, msg[:])
	if err != nil {
		return [64]byte{}, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "sign DKG proof of knowledge", err)
	}
	var out [64]byte
	copy(out[:], sig.Serialize())
	return out, nil
}

func verifyKnowledge(pp Round1Package) error {
	pub := btcec.NewPublicKey(pp.Commitment[0].X(), pp.Commitment[0].Y())
	sig, err := schnorr.ParseSignature(pp.ProofOfKnowledge[:])
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse DKG proof of knowledge", err)
	}
	msg := pokChallenge(pp.Sender, pp.Commitment)
	if !sig.Verify(msg[:], pub) {
		return bridgeerr.New(bridgeerr.KindFrost, "DKG proof of knowledge failed to verify")
	}
	return nil
}

func pokChallenge(sender Identifier, commitment []btcec.PublicKey) [32]byte {
	h := sha256.New()
	idHex := sender.Hex()
	h.Write([]byte(idHex))
	for _, c := range commitment {
		h.Write(c.SerializeCompressed())
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func privateKeyFromScalar(s *btcec.ModNScalar) *btcec.PrivateKey {
	b := s.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}
