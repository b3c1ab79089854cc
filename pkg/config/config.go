// Package config resolves the Grafana connection settings from the
// environment and an optional settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirsle/configdir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/alexander-akhmetov/alertsync/pkg/grafana"
)

const (
	appName      = "alertsync"
	settingsFile = "settings.yaml"
	envPrefix    = "GRAFANA"

	DefaultURL  = "http://localhost:3000/"
	DefaultUser = "admin"
)

const (
	keyURL      = "url"
	keyUser     = "user"
	keyPassword = "password"
	keyToken    = "api_token"
	keyVerify   = "verify"
	keyCACert   = "ca_cert"
	keyTimeout  = "timeout"
)

// DefaultSettingsPath is the settings file read when no path is given.
func DefaultSettingsPath() string {
	return filepath.Join(configdir.LocalConfig(appName), settingsFile)
}

// Load returns the Grafana client configuration. Values come from
// GRAFANA_* environment variables, then from the settings file at path (or
// DefaultSettingsPath when empty), then from defaults. A missing settings
// file is not an error.
func Load(path string) (grafana.Config, error) {
	v := viper.New()
	v.SetDefault(keyURL, DefaultURL)
	v.SetDefault(keyUser, DefaultUser)
	v.SetDefault(keyVerify, "true")
	v.SetDefault(keyTimeout, grafana.DefaultTimeout.Seconds())

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{keyURL, keyUser, keyPassword, keyToken, keyVerify, keyCACert, keyTimeout} {
		if err := v.BindEnv(key); err != nil {
			return grafana.Config{}, err
		}
	}

	if path == "" {
		path = DefaultSettingsPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return grafana.Config{}, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
		log.Debugf("Using settings file %s", path)
	}

	timeout := time.Duration(v.GetFloat64(keyTimeout) * float64(time.Second))
	if timeout <= 0 {
		return grafana.Config{}, fmt.Errorf("invalid %s_TIMEOUT %q", envPrefix, v.GetString(keyTimeout))
	}

	return grafana.Config{
		URL:           v.GetString(keyURL),
		User:          v.GetString(keyUser),
		Password:      v.GetString(keyPassword),
		Token:         v.GetString(keyToken),
		Verify:        verify(v.GetString(keyVerify)),
		CACert:        v.GetString(keyCACert),
		Timeout:       timeout,
		RetryCount:    grafana.DefaultRetryCount,
		RetryWaitTime: grafana.DefaultRetryWaitTime,
	}, nil
}

func verify(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}
