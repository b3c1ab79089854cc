package main

import (
	"fmt"
	"os"

	"github.com/go-clix/cli"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/alexander-akhmetov/alertsync/pkg/config"
	"github.com/alexander-akhmetov/alertsync/pkg/grafana"
)

type GrafanaOpts struct {
	SettingsPath string
}

func addGrafanaFlags(cmd *cli.Command, opts *GrafanaOpts) {
	cmd.Flags().StringVar(&opts.SettingsPath, "settings", "", fmt.Sprintf("settings file (default %s)", config.DefaultSettingsPath()))
}

// newClient builds a Grafana client from the environment and the settings
// file, prompting for a password when no credentials are configured.
func newClient(opts GrafanaOpts) (*grafana.Client, error) {
	cfg, err := config.Load(opts.SettingsPath)
	if err != nil {
		return nil, err
	}

	if cfg.Token == "" && cfg.Password == "" {
		password, err := promptPassword(cfg.User)
		if err != nil {
			return nil, err
		}
		cfg.Password = password
	}

	log.Debugf("Using Grafana at %s", cfg.URL)
	return grafana.New(cfg)
}

func promptPassword(user string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	fmt.Fprintf(os.Stderr, "Grafana password for %s: ", user)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
