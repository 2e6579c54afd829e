// Command bridged is the host process for the threshold signing engine: it
// opens the nonce/key-package store, reports whether this participant has
// completed DKG, and if not runs DKG round 1 and prints the round-1
// package, then exits. It does not implement a Bitcoin full node,
// validate proof-of-work, or validate zk-proofs (see spec.md Non-goals) —
// the Bitcoin-SPV verifier (spv/abi/guest) runs inside the zkVM guest, not
// in this process.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/btcbridge/tse-core/bridgecfg"
	"github.com/btcbridge/tse-core/store"
	"github.com/btcbridge/tse-core/tse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogRotator(cfg.LogFile); err != nil {
		return err
	}
	useLoggers(parseLogLevel(cfg.LogLevel))

	if _, err := bridgecfg.Params(cfg.Network); err != nil {
		return err
	}

	s, err := store.Open(cfg.storePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	coord := tse.New(s)

	ctx := context.Background()
	ready, verifyKeyHex, _, selfIDHex, err := coord.Init(ctx, cfg.SelfID)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if ready {
		fmt.Printf("bridged: identity %s ready, group verifying key %s\n", selfIDHex, verifyKeyHex)
		return nil
	}

	fmt.Printf("bridged: identity %s has no completed DKG; starting round 1 (t=%d, n=%d)\n",
		selfIDHex, cfg.Threshold, cfg.Total)
	_, pkgHex, err := coord.DKGRound1(ctx, cfg.SelfID, cfg.Total, cfg.Threshold)
	if err != nil {
		return fmt.Errorf("dkg_round1: %w", err)
	}
	fmt.Printf("bridged: round-1 package ready, broadcast to peers: %s\n", pkgHex)
	return nil
}
