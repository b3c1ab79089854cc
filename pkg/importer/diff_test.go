package importer

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
)

func TestDiff(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	fake, client := newFakeGrafana(t)
	rules := []alerting.APIRule{
		testRule("cpu-high", "High CPU", "cpu", "1m"),
		testRule("disk-full", "Disk full", "disk", ""),
	}
	_, err := NewRuleImporter(client, WithSleep(noSleep)).Import(context.Background(), rules)
	require.NoError(t, err)
	writes := len(fake.requests)

	rules[0].Annotations = map[string]any{"summary": "Very high CPU"}
	rules = append(rules,
		testRule("", "No uid", "cpu", ""),
		testRule("unknown", "Unknown", "cpu", ""),
	)

	var out bytes.Buffer
	summary, err := NewDiffer(client, &out).Diff(context.Background(), rules)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Changed)
	require.Equal(t, 1, summary.Unchanged)
	require.Equal(t, 2, summary.Missing)
	require.Equal(t, "changed=1, unchanged=1, missing=2", summary.String())

	require.Contains(t, out.String(), "--- remote")
	require.Contains(t, out.String(), "+++ local")
	require.Contains(t, out.String(), `-    "summary": "High CPU"`)
	require.Contains(t, out.String(), `+    "summary": "Very high CPU"`)

	for _, request := range fake.requests[writes:] {
		require.Regexp(t, "^GET ", request)
	}
}

func TestRuleDiffNormalizesDurations(t *testing.T) {
	rule := testRule("cpu-high", "High CPU", "cpu", "")
	rule.For = "5m"

	remote, err := toMap(rule.Payload("f1"))
	require.NoError(t, err)
	remote["for"] = "300s"
	remote["updated"] = "2024-01-01T00:00:00Z"

	diff, err := ruleDiff(rule.Payload("f1"), remote)
	require.NoError(t, err)
	require.Empty(t, diff)
}

func TestRuleDiffIgnoresLocalOnlyKeys(t *testing.T) {
	rule := testRule("cpu-high", "High CPU", "cpu", "")

	remote, err := toMap(rule.Payload("f1"))
	require.NoError(t, err)
	delete(remote, "labels")

	rule.Labels = map[string]any{"team": "other"}
	diff, err := ruleDiff(rule.Payload("f1"), remote)
	require.NoError(t, err)
	require.Empty(t, diff)
}
