// Package importer synchronizes converted alerting resources onto a Grafana
// server through the provisioning API.
package importer

import (
	"context"
	"fmt"

	"github.com/grafana/grafana-openapi-client-go/models"
	"github.com/hashicorp/go-multierror"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/grafana"
)

// FolderAPI lists and creates folders.
type FolderAPI interface {
	ListFolders(ctx context.Context) ([]*models.FolderSearchHit, error)
	CreateFolder(ctx context.Context, title string) (*models.Folder, error)
}

// RuleAPI manages alert rules and rule groups.
type RuleAPI interface {
	FolderAPI
	CreateAlertRule(ctx context.Context, rule alerting.RulePayload) (*grafana.RuleRef, error)
	UpdateAlertRule(ctx context.Context, uid string, rule alerting.RulePayload) (*grafana.RuleRef, error)
	GetAlertRule(ctx context.Context, uid string) (map[string]any, error)
	GetRuleGroup(ctx context.Context, folderUID, group string) (*grafana.RuleGroup, error)
	PutRuleGroup(ctx context.Context, folderUID, group string, update grafana.RuleGroupUpdate) error
}

// SettingsAPI manages contact points and the notification policy tree.
type SettingsAPI interface {
	ListContactPoints(ctx context.Context) ([]*models.EmbeddedContactPoint, error)
	CreateContactPoint(ctx context.Context, cp *models.EmbeddedContactPoint) (*models.EmbeddedContactPoint, error)
	UpdateContactPoint(ctx context.Context, uid string, cp *models.EmbeddedContactPoint) error
	PutPolicyTree(ctx context.Context, tree map[string]any) error
}

// Summary counts the outcome of an import. Per item failures are collected
// but do not stop the import.
type Summary struct {
	Created int
	Updated int
	Failed  int

	errs *multierror.Error
}

func (s *Summary) fail(obj fmt.Stringer, err error) {
	s.Failed++
	s.errs = multierror.Append(s.errs, fmt.Errorf("%s: %w", obj, err))
}

// warn records a problem that is not counted as a failed item.
func (s *Summary) warn(obj fmt.Stringer, err error) {
	s.errs = multierror.Append(s.errs, fmt.Errorf("%s: %w", obj, err))
}

// Err returns the collected per item errors, or nil.
func (s *Summary) Err() error {
	return s.errs.ErrorOrNil()
}

func (s *Summary) String() string {
	return fmt.Sprintf("created=%d, updated=%d, failed=%d", s.Created, s.Updated, s.Failed)
}
