package main

import (
	"errors"
	"os"

	"github.com/go-clix/cli"
	log "github.com/sirupsen/logrus"
)

// Version is set at build time.
var Version = "dev"

const (
	exitMissingInput = 1
	exitFatal        = 2
)

func main() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	rootCmd := &cli.Command{
		Use:     "alertsync",
		Short:   "Convert Grafana alerting YAML and sync it to a Grafana server",
		Version: Version,
	}

	rootCmd.AddCommand(
		convertCmd(),
		convertPrometheusCmd(),
		importRulesCmd(),
		importSettingsCmd(),
		diffCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(exitCode(err))
	}
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitFatal
}
