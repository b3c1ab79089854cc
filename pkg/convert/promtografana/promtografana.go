package promtografana

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/grafana/grafana-openapi-client-go/models"
	"gopkg.in/yaml.v3"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/interval"
)

const (
	defaultDatasourceUID = "grafanacloud-prom"
	defaultReceiver      = "grafana-default-email"
	defaultTimeRange     = 600
	defaultExecErrState  = "OK"
	defaultNoDataState   = "NoData"
	defaultInterval      = 60
)

// uidNamespace seeds the name based UUIDs given to converted rules, so
// converting the same file twice yields the same rule UIDs.
var uidNamespace = uuid.MustParse("8f0d1f52-7a59-4b3e-9d52-0c6f3a1e2b47")

// Options control the Grafana side of the conversion.
type Options struct {
	DatasourceUID string
	Receiver      string
	// Interval is used for groups that do not set one.
	Interval string
}

func (o Options) withDefaults() Options {
	if o.DatasourceUID == "" {
		o.DatasourceUID = defaultDatasourceUID
	}
	if o.Receiver == "" {
		o.Receiver = defaultReceiver
	}
	return o
}

// PrometheusRulesToGrafana converts a Prometheus rules file into Grafana
// provisioning rule groups stored in the given folder.
func PrometheusRulesToGrafana(folder string, reader io.Reader, opts Options) ([]alerting.RuleGroup, error) {
	promFile, err := readPrometheusRules(reader)
	if err != nil {
		return nil, err
	}

	for _, group := range promFile.Groups {
		for _, rule := range group.Rules {
			err := validatePrometheusRule(rule)
			if err != nil {
				return nil, fmt.Errorf("invalid Prometheus rule '%s': %w", rule.name(), err)
			}
		}
	}

	opts = opts.withDefaults()
	grafanaGroups := make([]alerting.RuleGroup, 0, len(promFile.Groups))
	for _, group := range promFile.Groups {
		grafanaGroup, err := convertPrometheusToGrafanaRuleGroup(folder, group, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to convert rule group '%s': %w", group.Name, err)
		}
		grafanaGroups = append(grafanaGroups, grafanaGroup)
	}

	return grafanaGroups, nil
}

// FolderName derives a folder title from a rules file name.
func FolderName(namespace string) string {
	return strings.ReplaceAll(namespace, ".", "_")
}

func readPrometheusRules(reader io.Reader) (*PrometheusRulesFile, error) {
	var ruleFile PrometheusRulesFile
	decoder := yaml.NewDecoder(reader)
	if err := decoder.Decode(&ruleFile); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	return &ruleFile, nil
}

func validatePrometheusRule(rule PrometheusRule) error {
	if rule.KeepFiringFor != "" {
		return fmt.Errorf("keep_firing_for is not supported")
	}
	if rule.Alert == "" && rule.Record == "" {
		return fmt.Errorf("either alert or record must be set")
	}

	return nil
}

func convertPrometheusToGrafanaRuleGroup(folder string, promGroup PrometheusRuleGroup, opts Options) (alerting.RuleGroup, error) {
	rules := make([]any, 0, len(promGroup.Rules))
	for _, rule := range promGroup.Rules {
		gr, err := prometheusToGrafanaRule(folder, promGroup.Name, rule, opts)
		if err != nil {
			return alerting.RuleGroup{}, fmt.Errorf("failed to convert Prometheus rule '%s' to Grafana rule: %w", rule.name(), err)
		}
		body, err := ruleToMap(gr)
		if err != nil {
			return alerting.RuleGroup{}, err
		}
		rules = append(rules, body)
	}

	groupInterval := interval.Format(defaultInterval)
	if promGroup.Interval != "" {
		groupInterval = promGroup.Interval
	} else if opts.Interval != "" {
		groupInterval = opts.Interval
	}

	return alerting.RuleGroup{
		OrgID:    alerting.DefaultOrgID,
		Name:     promGroup.Name,
		Folder:   folder,
		Interval: groupInterval,
		Rules:    rules,
	}, nil
}

func prometheusToGrafanaRule(folder string, group string, rule PrometheusRule, opts Options) (*models.ProvisionedAlertRule, error) {
	var duration strfmt.Duration
	if rule.For != "" {
		err := duration.UnmarshalText([]byte(rule.For))
		if err != nil {
			return nil, fmt.Errorf("invalid duration '%s': %w", rule.For, err)
		}
	}

	result := &models.ProvisionedAlertRule{
		UID:          ruleUID(folder, group, rule.name()),
		Title:        stringPtr(rule.name()),
		ExecErrState: stringPtr(defaultExecErrState),
		Annotations:  rule.Annotations,
		Condition:    stringPtr("B"),
		Data: []*models.AlertQuery{
			alertQueryNode(rule.Expr, opts.DatasourceUID),
		},
		For:         &duration,
		IsPaused:    false,
		Labels:      rule.Labels,
		NoDataState: stringPtr(defaultNoDataState),
		NotificationSettings: &models.AlertRuleNotificationSettings{
			Receiver: stringPtr(opts.Receiver),
		},
		RuleGroup: stringPtr(group),
	}

	if rule.Record != "" {
		result.NotificationSettings = nil
		result.Record = &models.Record{
			From:   stringPtr("A"),
			Metric: stringPtr(rule.Record),
		}
	} else {
		result.Data = append(result.Data, alertConditionNode())
	}

	return result, nil
}

// ruleToMap turns a rule into a file provisioning rule body. Fields owned by
// the group or by the server are dropped.
func ruleToMap(rule *models.ProvisionedAlertRule) (map[string]any, error) {
	data, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule: %w", err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to decode rule: %w", err)
	}

	for _, key := range []string{"id", "orgID", "folderUID", "ruleGroup", "updated", "provenance"} {
		delete(body, key)
	}
	if rule.For != nil {
		body["for"] = rule.For.String()
	}

	return body, nil
}

func ruleUID(folder, group, name string) string {
	return uuid.NewSHA1(uidNamespace, []byte(folder+"/"+group+"/"+name)).String()
}

func alertQueryNode(expr, datasourceUID string) *models.AlertQuery {
	return &models.AlertQuery{
		DatasourceUID: datasourceUID,
		Model: map[string]interface{}{
			"datasource": map[string]interface{}{
				"type": "prometheus",
				"uid":  datasourceUID,
			},
			"editorMode":    "code",
			"expr":          expr,
			"instant":       true,
			"range":         false,
			"intervalMs":    1000,
			"legendFormat":  "__auto",
			"maxDataPoints": 43200,
			"refId":         "A",
		},
		RefID: "A",
		RelativeTimeRange: &models.RelativeTimeRange{
			From: defaultTimeRange,
			To:   0,
		},
	}
}

func alertConditionNode() *models.AlertQuery {
	return &models.AlertQuery{
		DatasourceUID: "__expr__",
		Model: map[string]interface{}{
			"datasource": map[string]interface{}{
				"type": "__expr__",
				"uid":  "__expr__",
			},
			"conditions": []interface{}{
				map[string]interface{}{
					"evaluator": map[string]interface{}{
						"params": []interface{}{0},
						"type":   "gt",
					},
					"operator": map[string]interface{}{
						"type": "and",
					},
					"query": map[string]interface{}{
						"params": []interface{}{"B"},
					},
					"reducer": map[string]interface{}{
						"params": []interface{}{},
						"type":   "last",
					},
					"type": "query",
				},
			},
			"intervalMs":    1000,
			"expression":    "A",
			"legendFormat":  "__auto",
			"maxDataPoints": 43200,
			"refId":         "B",
			"type":          "threshold",
		},
		RefID: "B",
		RelativeTimeRange: &models.RelativeTimeRange{
			From: defaultTimeRange,
			To:   0,
		},
	}
}

func stringPtr(s string) *string {
	return &s
}
