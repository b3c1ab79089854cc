package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
)

const (
	ProvisioningFile = "provisioning_rules.json"
	APIRulesFile     = "api_rules.json"
)

// Result holds both conversion outputs.
type Result struct {
	Provisioning alerting.ProvisioningDocument
	APIRules     []alerting.APIRule
}

// Groups collects the `groups` lists of all documents. Documents without a
// groups list contribute nothing.
func Groups(docs []map[string]any) []map[string]any {
	var groups []map[string]any
	for _, doc := range docs {
		list, ok := doc["groups"].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			group, ok := item.(map[string]any)
			if !ok || len(group) == 0 {
				continue
			}
			groups = append(groups, group)
		}
	}
	return groups
}

// Convert builds the provisioning document and the flat API rule list.
func Convert(docs []map[string]any) Result {
	groups := Groups(docs)
	return Result{
		Provisioning: ToFileProvisioning(groups),
		APIRules:     ToAPIRules(groups),
	}
}

// ToFileProvisioning normalizes groups into a file provisioning document.
// Rule bodies are kept as they are.
func ToFileProvisioning(groups []map[string]any) alerting.ProvisioningDocument {
	result := make([]alerting.RuleGroup, 0, len(groups))
	for _, g := range groups {
		result = append(result, alerting.RuleGroup{
			OrgID:    orgID(g),
			Name:     stringOr(g, "name", alerting.DefaultGroupName),
			Folder:   stringOr(g, "folder", alerting.DefaultFolder),
			Interval: stringOr(g, "interval", alerting.DefaultGroupInterval),
			Rules:    rawRules(g),
		})
	}

	return alerting.ProvisioningDocument{
		APIVersion: alerting.ProvisioningAPIVersion,
		Groups:     result,
	}
}

// ToAPIRules flattens every rule of every group into an APIRule carrying its
// group's folder, name and interval.
func ToAPIRules(groups []map[string]any) []alerting.APIRule {
	apiRules := []alerting.APIRule{}
	for _, g := range groups {
		folder := stringOr(g, "folder", alerting.DefaultFolder)
		ruleGroup := stringOr(g, "name", alerting.DefaultGroupName)
		groupInterval := stringOr(g, "interval", alerting.DefaultRuleGroupInterval)
		org := orgID(g)

		for _, r := range rules(g) {
			rule := alerting.APIRule{
				Title:         firstString(r, alerting.UnnamedRule, "title", "uid"),
				RuleGroup:     ruleGroup,
				Folder:        folder,
				GroupInterval: groupInterval,
				NoDataState:   stringOr(r, "noDataState", alerting.DefaultNoDataState),
				ExecErrState:  stringOr(r, "execErrState", alerting.DefaultExecErrState),
				For:           stringOr(r, "for", alerting.DefaultFor),
				OrgID:         org,
				UID:           stringOr(r, "uid", ""),
				Condition:     r["condition"],
				Annotations:   mapOf(r["annotations"]),
				Labels:        mapOf(r["labels"]),
				Data:          listOf(r["data"]),
			}
			if paused, ok := r["isPaused"].(bool); ok {
				rule.IsPaused = paused
			}
			if settings, ok := r["notification_settings"].(map[string]any); ok {
				rule.NotificationSettings = settings
			}
			if record, ok := r["record"].(map[string]any); ok && len(record) > 0 {
				rule.Record = record
			}
			apiRules = append(apiRules, rule)
		}
	}
	return apiRules
}

// Run loads the YAML documents of inputDir, converts them and writes both
// JSON outputs into outDir.
func Run(loader *Loader, inputDir, outDir string) (*Result, error) {
	docs, err := loader.LoadDir(inputDir)
	if err != nil {
		return nil, err
	}

	result := Convert(docs)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	if err := WriteJSON(filepath.Join(outDir, ProvisioningFile), result.Provisioning); err != nil {
		return nil, err
	}
	if err := WriteJSON(filepath.Join(outDir, APIRulesFile), result.APIRules); err != nil {
		return nil, err
	}

	log.Debugf("Converted %d groups into %d API rules", len(result.Provisioning.Groups), len(result.APIRules))
	return &result, nil
}

// WriteJSON writes v as indented JSON without HTML escaping.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadAPIRules reads a rule list written by Run.
func ReadAPIRules(path string) ([]alerting.APIRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var apiRules []alerting.APIRule
	if err := json.Unmarshal(data, &apiRules); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return apiRules, nil
}

// rawRules returns the rules list of group untouched.
func rawRules(group map[string]any) []any {
	list, _ := group["rules"].([]any)
	if list == nil {
		return []any{}
	}
	return list
}

// rules returns the mapping entries of group's rules list.
func rules(group map[string]any) []map[string]any {
	list, _ := group["rules"].([]any)
	result := make([]map[string]any, 0, len(list))
	for i, item := range list {
		rule, ok := item.(map[string]any)
		if !ok {
			log.Warnf("Skipping rule #%d of group %v: not a mapping", i, group["name"])
			continue
		}
		result = append(result, rule)
	}
	return result
}
