package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/btcbridge/tse-core/frost"
	"github.com/btcbridge/tse-core/spv"
	"github.com/btcbridge/tse-core/store"
	"github.com/btcbridge/tse-core/tse"
	"github.com/btcbridge/tse-core/txbuilder"
)

// logWriter implements io.Writer and writes every call to both standard
// out and the rotating log file.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	return logRotator.Write(p)
}

// logRotator is initialized by initLogRotator and rotates the bridgd log
// file once it exceeds a fixed size.
var logRotator *rotator.Rotator

// initLogRotator opens (creating if necessary) the log rotator for
// logFile, matching the teacher's mining/randomx package's own
// UseLogger/DisableLog convention extended to the process entrypoint.
func initLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("create log rotator: %w", err)
	}
	logRotator = r
	return nil
}

const defaultLogLevel = "info"

var backendLog = btclog.NewBackend(logWriter{})

var (
	storeLog      = backendLog.Logger("STOR")
	frostLog      = backendLog.Logger("FRST")
	tseLog        = backendLog.Logger("TSEC")
	txbuilderLog  = backendLog.Logger("TXBL")
	spvLog        = backendLog.Logger("SPV ")
)

// useLoggers wires every component package's package-level logger to a
// subsystem-tagged btclog.Logger, the same UseLogger pattern the teacher
// uses for mining/randomx.
func useLoggers(level btclog.Level) {
	storeLog.SetLevel(level)
	store.UseLogger(storeLog)

	frostLog.SetLevel(level)
	frost.UseLogger(frostLog)

	tseLog.SetLevel(level)
	tse.UseLogger(tseLog)

	txbuilderLog.SetLevel(level)
	txbuilder.UseLogger(txbuilderLog)

	spvLog.SetLevel(level)
	spv.UseLogger(spvLog)
}
