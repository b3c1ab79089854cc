package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-clix/cli"

	"github.com/alexander-akhmetov/alertsync/pkg/convert"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

const (
	defaultInputDir  = "alert/instance"
	defaultOutputDir = "out"
)

func convertCmd() *cli.Command {
	cmd := &cli.Command{
		Use:   "convert",
		Short: "Convert alerting YAML into provisioning and API rule JSON",
		Args:  cli.ArgsNone(),
	}
	var opts LoggingOpts

	inputDir := cmd.Flags().StringP("input", "i", defaultInputDir, "directory holding the alerting YAML files")
	outputDir := cmd.Flags().StringP("out", "o", defaultOutputDir, "directory the JSON files are written to")
	pattern := cmd.Flags().String("pattern", convert.DefaultFilePattern, "glob selecting the YAML files to load")
	watch := cmd.Flags().BoolP("watch", "w", false, "convert again whenever an input file changes")

	cmd.Run = func(cmd *cli.Command, args []string) error {
		loader, err := convert.NewLoader(*pattern)
		if err != nil {
			return err
		}

		if _, err := os.Stat(*inputDir); err != nil {
			return withExitCode(exitMissingInput, fmt.Errorf("input directory not found: %s", *inputDir))
		}

		run := func() error {
			result, err := convert.Run(loader, *inputDir, *outputDir)
			if err != nil {
				return err
			}
			notifier.Info(nil, fmt.Sprintf("Wrote %d groups to %s", len(result.Provisioning.Groups), filepath.Join(*outputDir, convert.ProvisioningFile)))
			notifier.Info(nil, fmt.Sprintf("Wrote %d rules to %s", len(result.APIRules), filepath.Join(*outputDir, convert.APIRulesFile)))
			return nil
		}

		if err := run(); err != nil {
			return err
		}
		if !*watch {
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return loader.Watch(ctx, *inputDir, run)
	}

	return initialiseLogging(cmd, &opts)
}
