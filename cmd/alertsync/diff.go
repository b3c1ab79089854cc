package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-clix/cli"

	"github.com/alexander-akhmetov/alertsync/pkg/convert"
	"github.com/alexander-akhmetov/alertsync/pkg/importer"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

func diffCmd() *cli.Command {
	cmd := &cli.Command{
		Use:   "diff",
		Short: "Show how the converted alert rules differ from the ones on Grafana",
		Args:  cli.ArgsNone(),
	}
	var opts LoggingOpts
	var grafanaOpts GrafanaOpts
	addGrafanaFlags(cmd, &grafanaOpts)

	rulesFile := cmd.Flags().String("rules", defaultRulesFile, "API rules file written by convert")

	cmd.Run = func(cmd *cli.Command, args []string) error {
		if _, err := os.Stat(*rulesFile); err != nil {
			return withExitCode(exitMissingInput, fmt.Errorf("%s not found, run `alertsync convert` first", *rulesFile))
		}

		rules, err := convert.ReadAPIRules(*rulesFile)
		if err != nil {
			return err
		}

		client, err := newClient(grafanaOpts)
		if err != nil {
			return err
		}

		summary, err := importer.NewDiffer(client, notifier.Output).Diff(context.Background(), rules)
		if err != nil {
			return err
		}

		notifier.Info(nil, fmt.Sprintf("Diff result: %s", summary))
		return nil
	}

	return initialiseLogging(cmd, &opts)
}
