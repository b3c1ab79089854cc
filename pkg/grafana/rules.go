package grafana

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
)

const (
	alertRulesPath = "/api/v1/provisioning/alert-rules"
	alertRulePath  = "/api/v1/provisioning/alert-rules/{uid}"
	ruleGroupPath  = "/api/v1/provisioning/folder/{folderUid}/rule-groups/{group}"
)

// RuleRef is the part of a provisioned rule the importer needs back.
type RuleRef struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
}

// RuleGroup is a rule group as returned by the provisioning API. Rules are
// kept verbatim so they can be sent back unchanged.
type RuleGroup struct {
	Title     string            `json:"title"`
	FolderUID string            `json:"folderUid"`
	Interval  int64             `json:"interval"`
	Rules     []json.RawMessage `json:"rules"`
}

// RuleGroupUpdate is the body of a rule group PUT.
type RuleGroupUpdate struct {
	Interval int               `json:"interval"`
	Rules    []json.RawMessage `json:"rules"`
}

// CreateAlertRule creates a rule.
func (c *Client) CreateAlertRule(ctx context.Context, rule alerting.RulePayload) (*RuleRef, error) {
	response, err := c.execute(c.request(ctx).SetBody(rule), http.MethodPost, alertRulesPath)
	if err != nil {
		return nil, err
	}

	var ref RuleRef
	if err := decode(response, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// UpdateAlertRule replaces the rule identified by uid.
func (c *Client) UpdateAlertRule(ctx context.Context, uid string, rule alerting.RulePayload) (*RuleRef, error) {
	req := c.request(ctx).
		SetPathParam("uid", uid).
		SetBody(rule)

	response, err := c.execute(req, http.MethodPut, alertRulePath)
	if err != nil {
		return nil, err
	}

	var ref RuleRef
	if err := decode(response, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// GetAlertRule returns the raw rule identified by uid, or nil when it does
// not exist.
func (c *Client) GetAlertRule(ctx context.Context, uid string) (map[string]any, error) {
	response, err := c.execute(c.request(ctx).SetPathParam("uid", uid), http.MethodGet, alertRulePath)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var rule map[string]any
	if err := decode(response, &rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetRuleGroup returns a rule group, or nil when the group does not exist.
func (c *Client) GetRuleGroup(ctx context.Context, folderUID, group string) (*RuleGroup, error) {
	req := c.request(ctx).
		SetPathParam("folderUid", folderUID).
		SetPathParam("group", group)

	response, err := c.execute(req, http.MethodGet, ruleGroupPath)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var ruleGroup RuleGroup
	if err := decode(response, &ruleGroup); err != nil {
		return nil, err
	}
	return &ruleGroup, nil
}

// PutRuleGroup replaces a rule group's interval and rules.
func (c *Client) PutRuleGroup(ctx context.Context, folderUID, group string, update RuleGroupUpdate) error {
	req := c.request(ctx).
		SetHeader(disableProvenanceHeader, "true").
		SetPathParam("folderUid", folderUID).
		SetPathParam("group", group).
		SetBody(update)

	_, err := c.execute(req, http.MethodPut, ruleGroupPath)
	return err
}
