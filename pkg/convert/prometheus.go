package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/convert/promtografana"
)

// PrometheusToProvisioning converts a Prometheus rules file into a file
// provisioning document. The rules are placed in a folder named after the file.
func PrometheusToProvisioning(filename string, opts promtografana.Options) (*alerting.ProvisioningDocument, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	folder := promtografana.FolderName(filepath.Base(filename))
	groups, err := promtografana.PrometheusRulesToGrafana(folder, file, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to convert Prometheus rules: %w", err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no rule groups found in %s", filename)
	}

	return &alerting.ProvisioningDocument{
		APIVersion: alerting.ProvisioningAPIVersion,
		Groups:     groups,
	}, nil
}
