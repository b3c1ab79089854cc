package main

import (
	"github.com/go-clix/cli"
	log "github.com/sirupsen/logrus"
)

type LoggingOpts struct {
	LogLevel string
}

func initialiseLogging(cmd *cli.Command, opts *LoggingOpts) *cli.Command {
	cmd.Flags().StringVarP(&opts.LogLevel, "log-level", "l", log.InfoLevel.String(), "info, debug, warning, error")

	run := cmd.Run
	cmd.Run = func(cmd *cli.Command, args []string) error {
		level, err := log.ParseLevel(opts.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return run(cmd, args)
	}
	return cmd
}
