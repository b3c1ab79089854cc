package importer

import (
	"context"
	"fmt"

	"github.com/grafana/grafana-openapi-client-go/models"
	log "github.com/sirupsen/logrus"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/convert"
	"github.com/alexander-akhmetov/alertsync/pkg/grafana"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

// policyTree names the notification policy tree in notifications.
type policyTree struct{}

func (policyTree) String() string { return "NotificationPolicies" }

// SettingsImporter creates or updates contact points and replaces the
// notification policy tree.
type SettingsImporter struct {
	api SettingsAPI
}

func NewSettingsImporter(api SettingsAPI) *SettingsImporter {
	return &SettingsImporter{api: api}
}

// receiverIndex locates existing receivers by UID and by name and type.
type receiverIndex struct {
	byUID map[string]*models.EmbeddedContactPoint
	byKey map[alerting.ReceiverKey]*models.EmbeddedContactPoint
}

func newReceiverIndex(existing []*models.EmbeddedContactPoint) receiverIndex {
	idx := receiverIndex{
		byUID: map[string]*models.EmbeddedContactPoint{},
		byKey: map[alerting.ReceiverKey]*models.EmbeddedContactPoint{},
	}
	for _, cp := range existing {
		if cp == nil {
			continue
		}
		if cp.UID != "" {
			idx.byUID[cp.UID] = cp
		}
		if cp.Name != "" && receiverType(cp) != "" {
			idx.byKey[alerting.ReceiverKey{Name: cp.Name, Type: receiverType(cp)}] = cp
		}
	}
	return idx
}

// match returns the UID of the existing receiver rc should update. A UID
// known to the server wins over a name and type match.
func (idx receiverIndex) match(name string, rc alerting.Receiver) (string, bool) {
	if rc.UID != "" {
		if _, ok := idx.byUID[rc.UID]; ok {
			return rc.UID, true
		}
	}
	if cp, ok := idx.byKey[alerting.ReceiverKey{Name: name, Type: rc.Type}]; ok && cp.UID != "" {
		return cp.UID, true
	}
	return "", false
}

// ImportContactPoints pushes every receiver of doc. Failing receivers are
// logged and skipped; failing to list the existing ones aborts the import.
func (i *SettingsImporter) ImportContactPoints(ctx context.Context, doc alerting.ContactPointsDocument) (*Summary, error) {
	summary := &Summary{}
	if len(doc.ContactPoints) == 0 {
		notifier.Info(nil, "No contactPoints found")
		return summary, nil
	}

	existing, err := i.api.ListContactPoints(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list contact points: %w", err)
	}
	idx := newReceiverIndex(existing)

	for _, cp := range doc.ContactPoints {
		if cp.Name == "" || len(cp.Receivers) == 0 {
			log.Debugf("Skipping contact point %q without receivers", cp.Name)
			continue
		}

		for _, rc := range cp.Receivers {
			if err := i.importReceiver(ctx, idx, cp.Name, rc, summary); err != nil {
				return summary, err
			}
		}
	}

	notifier.Info(nil, fmt.Sprintf("ContactPoints result: %s", summary))
	return summary, nil
}

func (i *SettingsImporter) importReceiver(ctx context.Context, idx receiverIndex, name string, rc alerting.Receiver, summary *Summary) error {
	key := alerting.ReceiverKey{Name: name, Type: rc.Type}
	body := receiverBody(name, rc)

	if uid, ok := idx.match(name, rc); ok {
		err := i.api.UpdateContactPoint(ctx, uid, body)
		if err != nil {
			if grafana.IsTransport(err) {
				return err
			}
			summary.fail(key, err)
			notifier.Error(key, fmt.Sprintf("update failed: %v", err))
			return nil
		}
		summary.Updated++
		notifier.Updated(key, "uid="+uid)
		return nil
	}

	created, err := i.api.CreateContactPoint(ctx, body)
	if err != nil {
		if grafana.IsTransport(err) {
			return err
		}
		summary.fail(key, err)
		notifier.Error(key, fmt.Sprintf("create failed: %v", err))
		return nil
	}
	summary.Created++
	notifier.Created(key, "uid="+created.UID)
	return nil
}

func receiverBody(name string, rc alerting.Receiver) *models.EmbeddedContactPoint {
	settings := map[string]any{}
	if rc.Settings != nil {
		settings = convert.Normalize(rc.Settings).(map[string]any)
	}

	typ := rc.Type
	return &models.EmbeddedContactPoint{
		UID:                   rc.UID,
		Name:                  name,
		Type:                  &typ,
		Settings:              settings,
		DisableResolveMessage: rc.DisableResolveMessage,
	}
}

func receiverType(cp *models.EmbeddedContactPoint) string {
	if cp.Type == nil {
		return ""
	}
	return *cp.Type
}

// ImportPolicies replaces the notification policy tree with the root policy
// of doc. The server does not merge trees.
func (i *SettingsImporter) ImportPolicies(ctx context.Context, doc alerting.PoliciesDocument) (*Summary, error) {
	summary := &Summary{}

	doc.Policies = convert.Normalize(doc.Policies)
	tree := doc.Tree()
	if tree == nil {
		notifier.Info(nil, "No policies object found")
		return summary, nil
	}

	if err := i.api.PutPolicyTree(ctx, tree); err != nil {
		if grafana.IsTransport(err) {
			return summary, err
		}
		summary.fail(policyTree{}, err)
		notifier.Error(policyTree{}, fmt.Sprintf("update failed: %v", err))
		return summary, nil
	}

	summary.Updated++
	notifier.Updated(policyTree{}, "")
	return summary, nil
}
