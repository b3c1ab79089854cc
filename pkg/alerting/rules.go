package alerting

import "fmt"

const (
	// ProvisioningAPIVersion is the apiVersion of Grafana's file provisioning format.
	ProvisioningAPIVersion = 1

	DefaultOrgID         = 1
	DefaultFolder        = "Business-Auto"
	DefaultGroupName     = "default"
	DefaultGroupInterval = "1m"

	// DefaultRuleGroupInterval is carried by API rules whose group has no interval.
	DefaultRuleGroupInterval = "60s"
	DefaultNoDataState       = "OK"
	DefaultExecErrState      = "Error"
	DefaultFor               = "0m"
	UnnamedRule              = "Unnamed"
)

// ProvisioningDocument is the consolidated file provisioning document.
type ProvisioningDocument struct {
	APIVersion int         `json:"apiVersion" yaml:"apiVersion"`
	Groups     []RuleGroup `json:"groups" yaml:"groups"`
}

// RuleGroup is a named, ordered collection of rules sharing a folder and an
// evaluation interval. Rule bodies are kept as loaded, including entries that
// are not mappings.
type RuleGroup struct {
	OrgID    int64            `json:"orgId" yaml:"orgId"`
	Name     string           `json:"name" yaml:"name"`
	Folder   string           `json:"folder" yaml:"folder"`
	Interval string           `json:"interval" yaml:"interval"`
	Rules    []any            `json:"rules" yaml:"rules"`
}

func (g RuleGroup) String() string {
	return fmt.Sprintf("RuleGroup.%s/%s", g.Folder, g.Name)
}

// APIRule is a single rule flattened out of its group, ready to be sent to
// the provisioning API once Folder has been resolved to a folder UID.
type APIRule struct {
	Title         string `json:"title"`
	RuleGroup     string `json:"ruleGroup"`
	Folder        string `json:"folder"`
	GroupInterval string `json:"groupInterval"`
	NoDataState   string `json:"noDataState"`
	ExecErrState  string `json:"execErrState"`
	For           string `json:"for"`
	OrgID         int64  `json:"orgId"`
	// UID is empty for server-assigned identifiers.
	UID                  string         `json:"uid"`
	Condition            any            `json:"condition"`
	Annotations          map[string]any `json:"annotations"`
	Labels               map[string]any `json:"labels"`
	Data                 []any          `json:"data"`
	IsPaused             bool           `json:"isPaused,omitempty"`
	NotificationSettings map[string]any `json:"notification_settings,omitempty"`
	// Record turns the rule into a recording rule.
	Record map[string]any `json:"record,omitempty"`
}

func (r APIRule) String() string {
	return fmt.Sprintf("AlertRule.%s", r.Title)
}

// Payload returns the request body for the alert-rules endpoints. Recording
// rules are sent without a condition.
func (r APIRule) Payload(folderUID string) RulePayload {
	orgID := r.OrgID
	if orgID == 0 {
		orgID = DefaultOrgID
	}

	condition := r.Condition
	if r.Record != nil {
		condition = nil
	}

	return RulePayload{
		UID:                  r.UID,
		Title:                r.Title,
		RuleGroup:            r.RuleGroup,
		FolderUID:            folderUID,
		OrgID:                orgID,
		NoDataState:          r.NoDataState,
		ExecErrState:         r.ExecErrState,
		For:                  r.For,
		Condition:            condition,
		Annotations:          r.Annotations,
		Labels:               r.Labels,
		Data:                 r.Data,
		IsPaused:             r.IsPaused,
		NotificationSettings: r.NotificationSettings,
		Record:               r.Record,
	}
}

// RulePayload is the body of POST/PUT /api/v1/provisioning/alert-rules.
type RulePayload struct {
	UID                  string         `json:"uid"`
	Title                string         `json:"title"`
	RuleGroup            string         `json:"ruleGroup"`
	FolderUID            string         `json:"folderUID"`
	OrgID                int64          `json:"orgId"`
	NoDataState          string         `json:"noDataState"`
	ExecErrState         string         `json:"execErrState"`
	For                  string         `json:"for"`
	Condition            any            `json:"condition,omitempty"`
	Annotations          map[string]any `json:"annotations"`
	Labels               map[string]any `json:"labels"`
	Data                 []any          `json:"data"`
	IsPaused             bool           `json:"isPaused,omitempty"`
	NotificationSettings map[string]any `json:"notification_settings,omitempty"`
	Record               map[string]any `json:"record,omitempty"`
}
