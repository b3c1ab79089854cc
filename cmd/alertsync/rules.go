package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-clix/cli"
	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"

	"github.com/alexander-akhmetov/alertsync/pkg/convert"
	"github.com/alexander-akhmetov/alertsync/pkg/importer"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

var defaultRulesFile = filepath.Join(defaultOutputDir, convert.APIRulesFile)

func importRulesCmd() *cli.Command {
	cmd := &cli.Command{
		Use:   "import-rules",
		Short: "Create or update the converted alert rules on Grafana",
		Args:  cli.ArgsNone(),
	}
	var opts LoggingOpts
	var grafanaOpts GrafanaOpts
	addGrafanaFlags(cmd, &grafanaOpts)

	rulesFile := cmd.Flags().String("rules", defaultRulesFile, "API rules file written by convert")
	group := cmd.Flags().StringP("group", "g", "", "only import rule groups matching this glob")

	cmd.Run = func(cmd *cli.Command, args []string) error {
		if _, err := os.Stat(*rulesFile); err != nil {
			return withExitCode(exitMissingInput, fmt.Errorf("%s not found, run `alertsync convert` first", *rulesFile))
		}

		rules, err := convert.ReadAPIRules(*rulesFile)
		if err != nil {
			return withExitCode(exitFatal, err)
		}

		var ruleOpts []importer.RuleOption
		if *group != "" {
			g, err := glob.Compile(*group)
			if err != nil {
				return fmt.Errorf("invalid group pattern %q: %w", *group, err)
			}
			ruleOpts = append(ruleOpts, importer.WithGroupFilter(g))
		}

		client, err := newClient(grafanaOpts)
		if err != nil {
			return withExitCode(exitFatal, err)
		}

		summary, err := importer.NewRuleImporter(client, ruleOpts...).Import(context.Background(), rules)
		if err != nil {
			return withExitCode(exitFatal, err)
		}

		notifier.Info(nil, fmt.Sprintf("Rules result: %s", summary))
		if err := summary.Err(); err != nil {
			log.Warn(err)
		}
		return nil
	}

	return initialiseLogging(cmd, &opts)
}
