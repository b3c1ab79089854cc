package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-clix/cli"
	"gopkg.in/yaml.v3"

	"github.com/alexander-akhmetov/alertsync/pkg/convert"
	"github.com/alexander-akhmetov/alertsync/pkg/convert/promtografana"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

func convertPrometheusCmd() *cli.Command {
	cmd := &cli.Command{
		Use:   "convert-prometheus <filename> <output-folder>",
		Short: "Convert a Prometheus rules file to Grafana alerting YAML",
		Args:  cli.ArgsExact(2),
	}
	var opts LoggingOpts
	var promOpts promtografana.Options

	cmd.Flags().StringVar(&promOpts.DatasourceUID, "datasource-uid", "", "UID of the Prometheus datasource queried by the rules")
	cmd.Flags().StringVar(&promOpts.Receiver, "receiver", "", "contact point notified by alerting rules")
	cmd.Flags().StringVar(&promOpts.Interval, "interval", "", "evaluation interval of groups that do not set one")

	cmd.Run = func(cmd *cli.Command, args []string) error {
		filename := args[0]
		outputFolder := args[1]

		if _, err := os.Stat(filename); err != nil {
			return withExitCode(exitMissingInput, fmt.Errorf("rules file not found: %s", filename))
		}

		doc, err := convert.PrometheusToProvisioning(filename, promOpts)
		if err != nil {
			return err
		}

		err = os.MkdirAll(outputFolder, 0755)
		if err != nil {
			return err
		}

		docYaml, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}

		name := promtografana.FolderName(filepath.Base(filename))
		docPath := filepath.Join(outputFolder, name+".yaml")
		err = os.WriteFile(docPath, docYaml, 0644)
		if err != nil {
			notifier.Error(nil, "Failed to write rule groups to file")
			return err
		}

		for _, group := range doc.Groups {
			notifier.Info(group, fmt.Sprintf("%d rules", len(group.Rules)))
		}
		notifier.Info(nil, "")
		notifier.Info(nil, fmt.Sprintf("Successfully converted %s to %s", filename, docPath))
		notifier.Info(nil, fmt.Sprintf("To produce the import files, use the `alertsync convert --input %s` command", outputFolder))

		return nil
	}

	return initialiseLogging(cmd, &opts)
}
