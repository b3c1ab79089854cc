package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-clix/cli"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/convert"
	"github.com/alexander-akhmetov/alertsync/pkg/importer"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

func importSettingsCmd() *cli.Command {
	cmd := &cli.Command{
		Use:   "import-settings",
		Short: "Import contact points and notification policies into Grafana",
		Args:  cli.ArgsNone(),
	}
	var opts LoggingOpts
	var grafanaOpts GrafanaOpts
	addGrafanaFlags(cmd, &grafanaOpts)

	contactPointsFile := cmd.Flags().String("contact-points", "", "contact points YAML to import")
	policiesFile := cmd.Flags().String("notification-policies", "", "notification policies YAML to import")

	cmd.Run = func(cmd *cli.Command, args []string) error {
		if *contactPointsFile == "" && *policiesFile == "" {
			notifier.Info(nil, "Nothing to do. Specify --contact-points and/or --notification-policies")
			return nil
		}

		client, err := newClient(grafanaOpts)
		if err != nil {
			return withExitCode(exitFatal, err)
		}
		settings := importer.NewSettingsImporter(client)
		ctx := context.Background()

		// Missing files are reported and the other file is still imported.
		var missing *multierror.Error

		if *contactPointsFile != "" {
			var doc alerting.ContactPointsDocument
			switch err := readSettings(*contactPointsFile, &doc); {
			case os.IsNotExist(err):
				log.Errorf("Contact-points file not found: %s", *contactPointsFile)
				missing = multierror.Append(missing, err)
			case err != nil:
				return withExitCode(exitFatal, err)
			default:
				summary, err := settings.ImportContactPoints(ctx, doc)
				if err != nil {
					return withExitCode(exitFatal, err)
				}
				if err := summary.Err(); err != nil {
					log.Warn(err)
				}
			}
		}

		if *policiesFile != "" {
			var doc alerting.PoliciesDocument
			switch err := readSettings(*policiesFile, &doc); {
			case os.IsNotExist(err):
				log.Errorf("Notification-policies file not found: %s", *policiesFile)
				missing = multierror.Append(missing, err)
			case err != nil:
				return withExitCode(exitFatal, err)
			default:
				summary, err := settings.ImportPolicies(ctx, doc)
				if err != nil {
					return withExitCode(exitFatal, err)
				}
				if err := summary.Err(); err != nil {
					log.Warn(err)
				}
			}
		}

		return withExitCode(exitMissingInput, missing.ErrorOrNil())
	}

	return initialiseLogging(cmd, &opts)
}

func readSettings(path string, out any) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := convert.DecodeFile(path, out); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
