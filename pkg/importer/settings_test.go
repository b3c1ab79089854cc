package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/convert"
)

const contactPointsYAML = `
apiVersion: 1
contactPoints:
  - orgId: 1
    name: Ops
    receivers:
      - uid: ops-slack
        type: slack
        settings:
          url: !secret https://hooks.slack.com/services/T000/B000/XXX
      - type: email
        settings:
          addresses: ops@example.com
      - type: webhook
        settings:
          url: https://example.com/hook
        disableResolveMessage: true
  - name: Empty
    receivers: []
`

func decodeContactPoints(t *testing.T) alerting.ContactPointsDocument {
	t.Helper()
	var doc alerting.ContactPointsDocument
	require.NoError(t, convert.Decode(strings.NewReader(contactPointsYAML), &doc))
	return doc
}

func TestImportContactPoints(t *testing.T) {
	fake, client := newFakeGrafana(t)
	fake.contactPoints = []map[string]any{
		{"uid": "ops-email", "name": "Ops", "type": "email", "settings": map[string]any{}},
		{"uid": "ops-slack", "name": "Renamed", "type": "slack", "settings": map[string]any{}},
	}

	summary, err := NewSettingsImporter(client).ImportContactPoints(context.Background(), decodeContactPoints(t))
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	require.Equal(t, 2, summary.Updated)
	require.Equal(t, 1, summary.Created)

	require.Equal(t, 1, fake.count("PUT /api/v1/provisioning/contact-points/ops-slack"))
	require.Equal(t, 1, fake.count("PUT /api/v1/provisioning/contact-points/ops-email"))
	require.Equal(t, 1, fake.count("POST /api/v1/provisioning/contact-points"))
	require.Len(t, fake.contactPoints, 3)

	slack := fake.contactPoints[1]
	require.Equal(t, "Ops", slack["name"])
	require.Equal(t, map[string]any{"url": "https://hooks.slack.com/services/T000/B000/XXX"}, slack["settings"])

	webhook := fake.contactPoints[2]
	require.Equal(t, "webhook", webhook["type"])
	require.Equal(t, true, webhook["disableResolveMessage"])
}

func TestImportContactPointsUIDWinsOverName(t *testing.T) {
	fake, client := newFakeGrafana(t)
	fake.contactPoints = []map[string]any{
		{"uid": "by-name", "name": "Ops", "type": "slack", "settings": map[string]any{}},
		{"uid": "by-uid", "name": "Other", "type": "slack", "settings": map[string]any{}},
	}

	existing, err := client.ListContactPoints(context.Background())
	require.NoError(t, err)
	idx := newReceiverIndex(existing)

	uid, ok := idx.match("Ops", alerting.Receiver{UID: "by-uid", Type: "slack"})
	require.True(t, ok)
	require.Equal(t, "by-uid", uid)

	uid, ok = idx.match("Ops", alerting.Receiver{UID: "unknown", Type: "slack"})
	require.True(t, ok)
	require.Equal(t, "by-name", uid)

	_, ok = idx.match("Ops", alerting.Receiver{Type: "email"})
	require.False(t, ok)
}

func TestImportContactPointsIsIdempotent(t *testing.T) {
	fake, client := newFakeGrafana(t)
	importer := NewSettingsImporter(client)

	first, err := importer.ImportContactPoints(context.Background(), decodeContactPoints(t))
	require.NoError(t, err)
	require.Equal(t, 3, first.Created)

	second, err := importer.ImportContactPoints(context.Background(), decodeContactPoints(t))
	require.NoError(t, err)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 3, second.Updated)
	require.Len(t, fake.contactPoints, 3)
}

func TestImportContactPointsEmpty(t *testing.T) {
	fake, client := newFakeGrafana(t)

	summary, err := NewSettingsImporter(client).ImportContactPoints(context.Background(), alerting.ContactPointsDocument{})
	require.NoError(t, err)
	require.Zero(t, summary.Created+summary.Updated+summary.Failed)
	require.Empty(t, fake.requests)
}

func TestImportPolicies(t *testing.T) {
	tree := map[string]any{
		"receiver": "Ops",
		"routes":   []any{map[string]any{"receiver": "Ops", "object_matchers": []any{[]any{"team", "=", "core"}}}},
	}

	tests := []struct {
		name     string
		policies any
		want     map[string]any
	}{
		{name: "list", policies: []any{tree, map[string]any{"receiver": "ignored"}}, want: tree},
		{name: "mapping", policies: tree, want: tree},
		{name: "empty list", policies: []any{}},
		{name: "missing"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake, client := newFakeGrafana(t)

			summary, err := NewSettingsImporter(client).ImportPolicies(context.Background(), alerting.PoliciesDocument{APIVersion: 1, Policies: tc.policies})
			require.NoError(t, err)

			if tc.want == nil {
				require.Zero(t, summary.Updated)
				require.Zero(t, fake.count("PUT /api/v1/provisioning/policies"))
				return
			}
			require.Equal(t, 1, summary.Updated)
			require.Equal(t, tc.want, fake.policies)
		})
	}
}

func TestImportPoliciesFromYAML(t *testing.T) {
	fake, client := newFakeGrafana(t)

	var doc alerting.PoliciesDocument
	require.NoError(t, convert.Decode(strings.NewReader(`
apiVersion: 1
policies:
  - orgId: 1
    receiver: Ops
    group_by: [alertname]
`), &doc))

	_, err := NewSettingsImporter(client).ImportPolicies(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "Ops", fake.policies["receiver"])
	require.Equal(t, []any{"alertname"}, fake.policies["group_by"])
}
