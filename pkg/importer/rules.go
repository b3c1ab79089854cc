package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/grafana"
	"github.com/alexander-akhmetov/alertsync/pkg/interval"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

const (
	// intervalAttempts bounds the rule group interval update. Rules created
	// a moment ago may not be visible in their group yet.
	intervalAttempts = 3
	intervalDelay    = time.Second
)

var errRulesNotVisible = errors.New("rules are not visible in the group yet")

// bucket is a rule group of one folder.
type bucket struct {
	Folder string
	Group  string
}

func (b bucket) String() string {
	return fmt.Sprintf("RuleGroup.%s/%s", b.Folder, b.Group)
}

// RuleImporter creates or updates alert rules, then sets the evaluation
// interval of every group it touched.
type RuleImporter struct {
	api     RuleAPI
	folders *FolderResolver
	filter  glob.Glob
	sleep   func(time.Duration)
}

// RuleOption configures a RuleImporter.
type RuleOption func(*RuleImporter)

// WithGroupFilter restricts the import to rule groups whose name matches g.
func WithGroupFilter(g glob.Glob) RuleOption {
	return func(i *RuleImporter) {
		i.filter = g
	}
}

// WithSleep replaces the function used to wait between interval attempts.
func WithSleep(sleep func(time.Duration)) RuleOption {
	return func(i *RuleImporter) {
		i.sleep = sleep
	}
}

func NewRuleImporter(api RuleAPI, opts ...RuleOption) *RuleImporter {
	i := &RuleImporter{
		api:     api,
		folders: NewFolderResolver(api),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import submits rules bucket by bucket. Failures of single rules are logged
// and collected in the summary. Folder, rule group lookup and transport
// failures abort the import.
func (i *RuleImporter) Import(ctx context.Context, rules []alerting.APIRule) (*Summary, error) {
	summary := &Summary{}

	for pair := groupRules(rules).Oldest(); pair != nil; pair = pair.Next() {
		b, bucketRules := pair.Key, pair.Value
		if i.filter != nil && !i.filter.Match(b.Group) {
			log.Debugf("Skipping %s: filtered out", b)
			continue
		}

		folderUID, err := i.folders.Resolve(ctx, b.Folder)
		if err != nil {
			return summary, err
		}

		for _, rule := range bucketRules {
			if err := i.importRule(ctx, rule, folderUID, summary); err != nil {
				return summary, err
			}
		}

		groupInterval := firstGroupInterval(bucketRules)
		if groupInterval == "" {
			continue
		}
		if err := i.updateGroupInterval(ctx, b, folderUID, groupInterval, summary); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// groupRules buckets rules by folder and group, keeping first-seen order.
func groupRules(rules []alerting.APIRule) *orderedmap.OrderedMap[bucket, []alerting.APIRule] {
	buckets := orderedmap.New[bucket, []alerting.APIRule]()
	for _, rule := range rules {
		key := bucket{Folder: rule.Folder, Group: rule.RuleGroup}
		existing, _ := buckets.Get(key)
		buckets.Set(key, append(existing, rule))
	}
	return buckets
}

// firstGroupInterval returns the interval of the first rule carrying one.
// Later rules of the same bucket cannot override it.
func firstGroupInterval(rules []alerting.APIRule) string {
	for _, rule := range rules {
		if rule.GroupInterval != "" {
			return rule.GroupInterval
		}
	}
	return ""
}

func (i *RuleImporter) importRule(ctx context.Context, rule alerting.APIRule, folderUID string, summary *Summary) error {
	payload := rule.Payload(folderUID)

	ref, err := i.api.CreateAlertRule(ctx, payload)
	if err == nil {
		summary.Created++
		notifier.Created(rule, "uid="+ref.UID)
		return nil
	}
	if grafana.IsTransport(err) {
		return err
	}

	if !grafana.IsStatus(err, http.StatusConflict) || payload.UID == "" {
		summary.fail(rule, err)
		notifier.Error(rule, fmt.Sprintf("import failed: %v", err))
		return nil
	}

	log.Debugf("%s already exists, updating uid=%s", rule, payload.UID)
	ref, err = i.api.UpdateAlertRule(ctx, payload.UID, payload)
	if err != nil {
		if grafana.IsTransport(err) {
			return err
		}
		summary.fail(rule, err)
		notifier.Error(rule, fmt.Sprintf("update of uid=%s failed: %v", payload.UID, err))
		return nil
	}

	uid := ref.UID
	if uid == "" {
		uid = payload.UID
	}
	summary.Updated++
	notifier.Updated(rule, "uid="+uid)
	return nil
}

// updateGroupInterval sets the group's interval, sending back the rules the
// server reports for the group. A group whose rules are not visible yet, or
// that is rejected with 400, is retried after a delay.
func (i *RuleImporter) updateGroupInterval(ctx context.Context, b bucket, folderUID, groupInterval string, summary *Summary) error {
	formatted, seconds := interval.Normalize(groupInterval, interval.DefaultSeconds, interval.SchedulerStep)

	var lastErr error
	for attempt := 1; attempt <= intervalAttempts; attempt++ {
		existing, err := i.api.GetRuleGroup(ctx, folderUID, b.Group)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", b, err)
		}
		if existing == nil {
			log.Debugf("%s does not exist, not setting its interval", b)
			return nil
		}
		if len(existing.Rules) == 0 {
			lastErr = errRulesNotVisible
			log.Debugf("%s has no visible rules yet (attempt %d)", b, attempt)
			i.sleep(intervalDelay)
			continue
		}

		err = i.api.PutRuleGroup(ctx, folderUID, b.Group, grafana.RuleGroupUpdate{
			Interval: seconds,
			Rules:    existing.Rules,
		})
		if err == nil {
			notifier.Updated(b, "interval="+formatted)
			return nil
		}
		if grafana.IsTransport(err) {
			return err
		}

		lastErr = err
		if !grafana.IsStatus(err, http.StatusBadRequest) {
			break
		}
		log.Debugf("%s interval rejected (attempt %d): %v", b, attempt, err)
		i.sleep(intervalDelay)
	}

	summary.warn(b, fmt.Errorf("interval update failed: %w", lastErr))
	notifier.Warn(b, fmt.Sprintf("interval update failed after retries: %v", lastErr))
	return nil
}
