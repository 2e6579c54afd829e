package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"

	"github.com/btcbridge/tse-core/bridgecfg"
	"github.com/btcbridge/tse-core/store"
)

const (
	defaultConfigFilename = "bridged.conf"
	defaultLogFilename    = "bridged.log"
	defaultDataDir        = "/state"
)

// config holds every command-line/config-file option bridged accepts,
// following the teacher's own flags-struct-with-tags convention.
type config struct {
	Network   string `long:"network" description:"Bitcoin network: mainnet, testnet, signet, regtest" default:"testnet"`
	DataDir   string `long:"datadir" description:"Directory to store the nonces/key-package database"`
	LogFile   string `long:"logfile" description:"Path to the log file"`
	LogLevel  string `long:"loglevel" description:"Logging level: trace, debug, info, warn, error, critical" default:"info"`
	SelfID    uint16 `long:"selfid" description:"This participant's FROST identifier (1-based)"`
	Total     uint16 `long:"total" description:"Total number of signing participants"`
	Threshold uint16 `long:"threshold" description:"Signing threshold"`
}

// loadConfig parses command-line flags, resolves defaults, and validates
// the result, matching the shape (if not the full feature set) of the
// teacher's dropped config-file+flags loader.
func loadConfig() (*config, error) {
	cfg := config{
		DataDir: defaultDataDir,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}

	if _, err := bridgecfg.Params(cfg.Network); err != nil {
		return nil, err
	}

	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, defaultLogFilename)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}

	return &cfg, nil
}

func (c *config) storePath() string {
	if c.DataDir == defaultDataDir {
		return store.DefaultPath
	}
	return filepath.Join(c.DataDir, "nonces_db")
}

func parseLogLevel(s string) btclog.Level {
	level, ok := btclog.LevelFromString(s)
	if !ok {
		fmt.Fprintf(os.Stderr, "unrecognized log level %q, defaulting to info\n", s)
		return btclog.LevelInfo
	}
	return level
}
