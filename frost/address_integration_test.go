package frost

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

// TestThresholdSignatureVerifiesUnderDerivedTaprootOutputKey is property
// 4 / scenario from §3's Tweak Policy: a signature produced over the
// group's tweaked key must verify under the exact BIP-86 Taproot output
// key that address derivation computes from the same (untweaked) group
// key, regardless of the group key's own y-parity. Since that parity is
// effectively a coin flip of the DKG run, this repeats the whole
// DKG+sign+verify cycle enough times to exercise both outcomes.
func TestThresholdSignatureVerifiesUnderDerivedTaprootOutputKey(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		keyPkgs, pubKeyPkgs := runDKG(t, 3, 2)

		id1, _ := IdentifierFromUint16(1)
		id2, _ := IdentifierFromUint16(2)
		kp1, kp2 := keyPkgs[id1.Hex()], keyPkgs[id2.Hex()]
		pkp := pubKeyPkgs[id1.Hex()]

		message := sha256.Sum256([]byte("taproot key-path sighash"))

		nonces1, commit1, err := SignRound1(kp1)
		require.NoError(t, err)
		nonces2, commit2, err := SignRound1(kp2)
		require.NoError(t, err)

		sp := NewSigningPackage(message[:], []SigningCommitments{*commit1, *commit2})

		share1, err := SignRound2(kp1, nonces1, sp)
		require.NoError(t, err)
		share2, err := SignRound2(kp2, nonces2, sp)
		require.NoError(t, err)

		shares := map[string]btcec.ModNScalar{
			id1.Hex(): share1,
			id2.Hex(): share2,
		}

		sig, err := AggregateSignature(pkp, sp, shares)
		require.NoError(t, err)

		// Exactly what txbuilder.DeriveTaprootAddress computes from the
		// same untweaked group key: lift to even-Y, then the BIP-86
		// (empty merkle root) Taproot output key.
		groupXOnly := XOnly(&kp1.VerifyingKey)
		internalKey, err := schnorr.ParsePubKey(groupXOnly[:])
		require.NoError(t, err)
		outputKey := txscript.ComputeTaprootOutputKey(internalKey, nil)

		parsedSig, err := schnorr.ParseSignature(sig[:])
		require.NoError(t, err)
		require.True(t, parsedSig.Verify(message[:], outputKey),
			"trial %d: signature does not verify under the derived taproot output key", trial)
	}
}
