package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/temirov/skryper/internal/cli"
	"github.com/temirov/skryper/internal/logging"
	"github.com/temirov/skryper/internal/utils"
)

const (
	exitCodeFailure     = 1
	exitCodeInvalidRoot = 2
)

// cancelSignals stop an in-flight scan.
var cancelSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// main is the entry point for the skryper command.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), cancelSignals...)
	applicationExecutionError := cli.Execute(ctx)
	stop()
	if applicationExecutionError == nil {
		return
	}

	loggerInstance := logging.NewApplicationLogger(logging.ApplicationLoggerOptions{})
	loggerInstance.Error(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	_ = loggerInstance.Sync()
	if cli.IsInvalidRoot(applicationExecutionError) {
		os.Exit(exitCodeInvalidRoot)
	}
	os.Exit(exitCodeFailure)
}
