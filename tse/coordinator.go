package tse

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/btcbridge/tse-core/bridgeerr"
	"github.com/btcbridge/tse-core/frost"
	"github.com/btcbridge/tse-core/store"
)

// Coordinator is the host-facing entry point for both the DKG protocol
// (C2) and the signing protocol (C3). One Coordinator is shared across
// every locally-hosted participant identity; per-identity operations are
// serialized against each other, but distinct identities may proceed
// concurrently, matching §5's concurrency model.
type Coordinator struct {
	store *store.Store

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New constructs a Coordinator backed by s.
func New(s *store.Store) *Coordinator {
	return &Coordinator{store: s, locks: make(map[string]*sync.Mutex)}
}

func (c *Coordinator) lockFor(idHex string) func() {
	c.locksMu.Lock()
	l, ok := c.locks[idHex]
	if !ok {
		l = &sync.Mutex{}
		c.locks[idHex] = l
	}
	c.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Init reports whether DKG has completed for self_u16, returning the
// x-only group verifying key, the hex-encoded PublicKeyPackage, and the
// canonical identifier string. If either the key package or the public
// key package is missing, ready is false and the key fields are empty,
// but selfIdHex is always populated.
func (c *Coordinator) Init(_ context.Context, selfU16 uint16) (ready bool, verifyKeyHex, pubKeyPkgHex, selfIDHex string, err error) {
	id, err := frost.IdentifierFromUint16(selfU16)
	if err != nil {
		return false, "", "", "", err
	}
	selfIDHex = id.Hex()

	kpRaw, kpOK, err := c.store.Get(store.KeyPackageKey(selfIDHex))
	if err != nil {
		return false, "", "", selfIDHex, err
	}
	pkpRaw, pkpOK, err := c.store.Get(store.PubKeyPkgKey(selfIDHex))
	if err != nil {
		return false, "", "", selfIDHex, err
	}
	if !kpOK || !pkpOK {
		return false, "", "", selfIDHex, nil
	}

	kp, err := unmarshalKeyPackage(kpRaw)
	if err != nil {
		return false, "", "", selfIDHex, err
	}
	pkp, err := unmarshalPublicKeyPackage(pkpRaw)
	if err != nil {
		return false, "", "", selfIDHex, err
	}
	return true, encodeHex(frost.XOnly(&kp.VerifyingKey)[:]), encodeHex(pkpRaw), selfIDHex, nil
}

// DKGRound1 initializes a fresh polynomial for selfU16, persists the
// round-1 secret, and returns the participant's canonical identifier and
// the broadcastable round-1 package.
func (c *Coordinator) DKGRound1(_ context.Context, selfU16, total, threshold uint16) (selfIDHex, pkg1Hex string, err error) {
	id, err := frost.IdentifierFromUint16(selfU16)
	if err != nil {
		return "", "", err
	}
	selfIDHex = id.Hex()
	defer c.lockFor(selfIDHex)()

	secret, pkg, err := frost.DKGRound1(id, total, threshold)
	if err != nil {
		return "", "", err
	}

	raw, err := marshalR1Secret(secret)
	if err != nil {
		return "", "", err
	}
	if err := c.store.Put(store.Round1Key(selfIDHex), raw); err != nil {
		return "", "", err
	}

	pkgHex, err := marshalRound1Package(pkg)
	if err != nil {
		return "", "", err
	}
	return selfIDHex, pkgHex, nil
}

// DKGRound2 loads the round-1 secret, verifies every peer's round-1
// proof of knowledge, computes this participant's directed shares, and
// persists the round-2 secret.
func (c *Coordinator) DKGRound2(_ context.Context, selfIDHex string, peers []PeerPackage) (directed []PeerPackage, err error) {
	defer c.lockFor(selfIDHex)()

	raw, ok, err := c.store.Get(store.Round1Key(selfIDHex))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, bridgeerr.New(bridgeerr.KindMissingData, "round-1 secret absent for this identity")
	}
	secret, err := unmarshalR1Secret(raw)
	if err != nil {
		return nil, err
	}

	peerPkgs := make([]frost.Round1Package, 0, len(peers))
	for _, p := range peers {
		pkg, err := unmarshalRound1Package(p.Payload)
		if err != nil {
			return nil, err
		}
		peerPkgs = append(peerPkgs, *pkg)
	}

	r2secret, directedPkgs, err := frost.DKGRound2(secret, peerPkgs)
	if err != nil {
		return nil, err
	}

	r2raw, err := marshalR2Secret(r2secret)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(store.Round2Key(selfIDHex), r2raw); err != nil {
		return nil, err
	}

	out := make([]PeerPackage, 0, len(directedPkgs))
	for _, d := range directedPkgs {
		hexPkg, err := marshalRound2Package(d)
		if err != nil {
			return nil, err
		}
		out = append(out, PeerPackage{ID: d.Receiver.Hex(), Payload: hexPkg})
	}
	return out, nil
}

// DKGRound3 loads the round-2 secret, verifies every received share
// against its sender's round-1 commitment, and persists the finalized
// KeyPackage and PublicKeyPackage.
func (c *Coordinator) DKGRound3(_ context.Context, selfIDHex string, r1Peers, r2Peers []PeerPackage) (pubKeyPkgHex, verifyKeyHex32 string, err error) {
	defer c.lockFor(selfIDHex)()

	raw, ok, err := c.store.Get(store.Round2Key(selfIDHex))
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", bridgeerr.New(bridgeerr.KindMissingData, "round-2 secret absent for this identity")
	}
	secret, err := unmarshalR2Secret(raw)
	if err != nil {
		return "", "", err
	}

	r1Pkgs := make([]frost.Round1Package, 0, len(r1Peers))
	for _, p := range r1Peers {
		pkg, err := unmarshalRound1Package(p.Payload)
		if err != nil {
			return "", "", err
		}
		r1Pkgs = append(r1Pkgs, *pkg)
	}
	r2Pkgs := make([]frost.Round2Package, 0, len(r2Peers))
	for _, p := range r2Peers {
		pkg, err := unmarshalRound2Package(p.Payload)
		if err != nil {
			return "", "", err
		}
		r2Pkgs = append(r2Pkgs, *pkg)
	}

	kp, pkp, verifyKey, err := frost.DKGRound3(secret, r1Pkgs, r2Pkgs)
	if err != nil {
		log.Errorf("dkg round 3 failed for %s: %v", selfIDHex, err)
		return "", "", err
	}
	log.Infof("dkg complete for %s", selfIDHex)

	kpRaw, err := marshalKeyPackage(kp)
	if err != nil {
		return "", "", err
	}
	if err := c.store.Put(store.KeyPackageKey(selfIDHex), kpRaw); err != nil {
		return "", "", err
	}
	pkpRaw, err := marshalPublicKeyPackage(pkp)
	if err != nil {
		return "", "", err
	}
	if err := c.store.Put(store.PubKeyPkgKey(selfIDHex), pkpRaw); err != nil {
		return "", "", err
	}

	return encodeHex(pkpRaw), encodeHex(verifyKey[:]), nil
}

// SignRound1 loads this identity's KeyPackage, generates a fresh
// single-use nonce pair, persists it, and returns the public commitments.
func (c *Coordinator) SignRound1(_ context.Context, selfIDHex string) (commitmentsHex string, err error) {
	defer c.lockFor(selfIDHex)()

	kp, err := c.loadKeyPackage(selfIDHex)
	if err != nil {
		return "", err
	}

	nonces, commitments, err := frost.SignRound1(kp)
	if err != nil {
		return "", err
	}

	raw, err := marshalSigningNonces(nonces)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(store.NoncesKey(selfIDHex), raw); err != nil {
		return "", err
	}

	return marshalSigningCommitments(commitments)
}

// SignRound2 loads this identity's KeyPackage and single-use nonces,
// rebuilds the signing package from the peer commitments and message,
// produces a signature share, and consumes (deletes) the nonces whether
// signing succeeds or fails.
func (c *Coordinator) SignRound2(_ context.Context, selfIDHex, messageHex string, peerCommitments []PeerPackage) (shareHex string, err error) {
	defer c.lockFor(selfIDHex)()

	kp, err := c.loadKeyPackage(selfIDHex)
	if err != nil {
		return "", err
	}

	raw, ok, err := c.store.Get(store.NoncesKey(selfIDHex))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", bridgeerr.New(bridgeerr.KindMissingData, "no signing nonces pending for this identity")
	}
	nonces, err := unmarshalSigningNonces(raw)
	if err != nil {
		return "", err
	}

	// Consume the nonce record unconditionally: on success the nonce is
	// used exactly once; on failure it must never be replayable either.
	defer func() {
		if delErr := c.store.DeleteOrTombstone(store.NoncesKey(selfIDHex)); delErr != nil && err == nil {
			err = delErr
		}
	}()

	message, err := decodeHex(bridgeerr.KindHex, messageHex)
	if err != nil {
		return "", err
	}

	commitments := make([]frost.SigningCommitments, 0, len(peerCommitments))
	for _, p := range peerCommitments {
		c, err := unmarshalSigningCommitments(p.Payload)
		if err != nil {
			return "", err
		}
		commitments = append(commitments, *c)
	}
	sp := frost.NewSigningPackage(message, commitments)

	share, err := frost.SignRound2(kp, nonces, sp)
	if err != nil {
		return "", err
	}

	shareBytes := share.Bytes()
	return encodeHex(shareBytes[:]), nil
}

// AggregateSignature rebuilds the signing package and aggregates the
// supplied signature shares, failing the call if the resulting 64-byte
// Schnorr signature does not verify against the tweaked group key (§9).
func (c *Coordinator) AggregateSignature(_ context.Context, messageHex string, shares []PeerPackage, commitments []PeerPackage, pubKeyPkgHex string) (signatureHex string, err error) {
	message, err := decodeHex(bridgeerr.KindHex, messageHex)
	if err != nil {
		return "", err
	}

	pkpRaw, err := decodeHex(bridgeerr.KindHex, pubKeyPkgHex)
	if err != nil {
		return "", err
	}
	pkp, err := unmarshalPublicKeyPackage(pkpRaw)
	if err != nil {
		return "", err
	}

	commitList := make([]frost.SigningCommitments, 0, len(commitments))
	for _, p := range commitments {
		cc, err := unmarshalSigningCommitments(p.Payload)
		if err != nil {
			return "", err
		}
		commitList = append(commitList, *cc)
	}
	sp := frost.NewSigningPackage(message, commitList)

	shareMap := make(map[string]btcec.ModNScalar, len(shares))
	for _, s := range shares {
		b, err := decodeHex(bridgeerr.KindHex, s.Payload)
		if err != nil {
			return "", err
		}
		var sc btcec.ModNScalar
		if overflow := sc.SetByteSlice(b); overflow {
			return "", bridgeerr.New(bridgeerr.KindSecp256k1, "signature share overflows group order")
		}
		shareMap[s.ID] = sc
	}

	sig, err := frost.AggregateSignature(pkp, sp, shareMap)
	if err != nil {
		log.Errorf("signature aggregation failed: %v", err)
		return "", err
	}
	log.Debugf("aggregated signature over %d shares", len(shares))
	return encodeHex(sig[:]), nil
}

func (c *Coordinator) loadKeyPackage(selfIDHex string) (*frost.KeyPackage, error) {
	raw, ok, err := c.store.Get(store.KeyPackageKey(selfIDHex))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, bridgeerr.New(bridgeerr.KindMissingData, "key package absent for this identity; run DKG first")
	}
	return unmarshalKeyPackage(raw)
}
