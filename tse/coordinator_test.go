package tse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcbridge/tse-core/frost"
	"github.com/btcbridge/tse-core/store"
)

func newCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return New(s)
}

// runDKG drives a fresh threshold-of-n DKG to completion across n Coordinators
// (one per participant, each with its own store), entirely through the
// hex-encoded host-facing API, and returns each participant's identifier
// and finalized public key package hex.
func runDKG(t *testing.T, n, threshold uint16) (coords map[string]*Coordinator, pubKeyPkgHex map[string]string) {
	t.Helper()

	coords = make(map[string]*Coordinator, n)
	selfIDs := make([]string, n)
	r1Pkgs := make([]PeerPackage, 0, n)

	for i := uint16(0); i < n; i++ {
		c := newCoordinator(t)
		selfIDHex, pkg1Hex, err := c.DKGRound1(context.Background(), i+1, n, threshold)
		require.NoError(t, err)
		coords[selfIDHex] = c
		selfIDs[i] = selfIDHex
		r1Pkgs = append(r1Pkgs, PeerPackage{ID: selfIDHex, Payload: pkg1Hex})
	}

	directedByReceiver := make(map[string][]PeerPackage)
	for _, selfIDHex := range selfIDs {
		c := coords[selfIDHex]
		directed, err := c.DKGRound2(context.Background(), selfIDHex, r1Pkgs)
		require.NoError(t, err)
		for _, d := range directed {
			directedByReceiver[d.ID] = append(directedByReceiver[d.ID], d)
		}
	}

	pubKeyPkgHex = make(map[string]string, n)
	for _, selfIDHex := range selfIDs {
		c := coords[selfIDHex]
		pkpHex, _, err := c.DKGRound3(context.Background(), selfIDHex, r1Pkgs, directedByReceiver[selfIDHex])
		require.NoError(t, err)
		pubKeyPkgHex[selfIDHex] = pkpHex
	}
	return coords, pubKeyPkgHex
}

// TestCoordinatorDKGAndSignEndToEnd drives a 2-of-3 DKG to completion and
// then a full signing round between 2 of the 3 participants, entirely
// through the Coordinator's hex-encoded API, matching scenario E1/E2.
func TestCoordinatorDKGAndSignEndToEnd(t *testing.T) {
	coords, pubKeyPkgHex := runDKG(t, 3, 2)
	require.Len(t, coords, 3)

	var signerIDs []string
	for id := range coords {
		signerIDs = append(signerIDs, id)
		if len(signerIDs) == 2 {
			break
		}
	}

	message := sha256.Sum256([]byte("synthetic taproot sighash"))
	messageHex := hex.EncodeToString(message[:])

	var commitments []PeerPackage
	for _, id := range signerIDs {
		commitHex, err := coords[id].SignRound1(context.Background(), id)
		require.NoError(t, err)
		commitments = append(commitments, PeerPackage{ID: id, Payload: commitHex})
	}

	var shares []PeerPackage
	for _, id := range signerIDs {
		shareHex, err := coords[id].SignRound2(context.Background(), id, messageHex, commitments)
		require.NoError(t, err)
		shares = append(shares, PeerPackage{ID: id, Payload: shareHex})
	}

	sigHex, err := coords[signerIDs[0]].AggregateSignature(context.Background(), messageHex, shares, commitments, pubKeyPkgHex[signerIDs[0]])
	require.NoError(t, err)

	sigBytes, err := hex.DecodeString(sigHex)
	require.NoError(t, err)
	require.Len(t, sigBytes, 64)
}

// TestCoordinatorInitReflectsCompletedDKG checks that Init reports ready
// once the finalized key package exists, and not before.
func TestCoordinatorInitReflectsCompletedDKG(t *testing.T) {
	c := newCoordinator(t)

	ready, verifyKeyHex, pkpHex, selfIDHex, err := c.Init(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, ready)
	require.Empty(t, verifyKeyHex)
	require.Empty(t, pkpHex)
	require.NotEmpty(t, selfIDHex)

	coords, pubKeyPkgHex := runDKG(t, 3, 2)
	id1, err := frost.IdentifierFromUint16(1)
	require.NoError(t, err)
	ready, verifyKeyHex, pkpHex, selfIDHex, err = coords[id1.Hex()].Init(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ready)
	require.Len(t, verifyKeyHex, 64)
	require.Equal(t, pubKeyPkgHex[id1.Hex()], pkpHex)
	require.Equal(t, id1.Hex(), selfIDHex)
}

// TestCoordinatorSignRound2ConsumesNonceOnce is property 3 / §8's
// single-use nonce invariant, exercised end to end through the store.
func TestCoordinatorSignRound2ConsumesNonceOnce(t *testing.T) {
	coords, _ := runDKG(t, 3, 2)

	var signerIDs []string
	for id := range coords {
		signerIDs = append(signerIDs, id)
		if len(signerIDs) == 2 {
			break
		}
	}

	var commitments []PeerPackage
	for _, id := range signerIDs {
		commitHex, err := coords[id].SignRound1(context.Background(), id)
		require.NoError(t, err)
		commitments = append(commitments, PeerPackage{ID: id, Payload: commitHex})
	}

	message := sha256.Sum256([]byte("first message"))
	messageHex := hex.EncodeToString(message[:])

	id := signerIDs[0]
	_, err := coords[id].SignRound2(context.Background(), id, messageHex, commitments)
	require.NoError(t, err)

	// The nonce was consumed by the call above; reusing it must fail.
	_, err = coords[id].SignRound2(context.Background(), id, messageHex, commitments)
	require.Error(t, err)
}

// TestCoordinatorDKGRound2RejectsMissingRound1Secret is the
// missing-prerequisite failure mode of the state machine: round 2 cannot
// run before round 1 has persisted a secret for this identity.
func TestCoordinatorDKGRound2RejectsMissingRound1Secret(t *testing.T) {
	c := newCoordinator(t)
	_, err := c.DKGRound2(context.Background(), "deadbeef", nil)
	require.Error(t, err)
}
