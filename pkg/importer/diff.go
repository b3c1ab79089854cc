package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
	"github.com/alexander-akhmetov/alertsync/pkg/interval"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

// durationKeys hold durations that the server may print differently.
var durationKeys = map[string]bool{"for": true}

var (
	added   = color.New(color.FgGreen)
	removed = color.New(color.FgRed)
)

// DiffSummary counts the outcome of a diff.
type DiffSummary struct {
	Changed   int
	Unchanged int
	Missing   int
}

func (s *DiffSummary) String() string {
	return fmt.Sprintf("changed=%d, unchanged=%d, missing=%d", s.Changed, s.Unchanged, s.Missing)
}

// Differ compares converted rules with the rules stored on the server. It
// never creates folders or changes rules.
type Differ struct {
	api     RuleAPI
	folders *FolderResolver
	out     io.Writer
}

// NewDiffer returns a Differ printing unified diffs to out.
func NewDiffer(api RuleAPI, out io.Writer) *Differ {
	return &Differ{
		api:     api,
		folders: NewFolderResolver(api),
		out:     out,
	}
}

// Diff prints the differences of every rule carrying a UID. Only the fields
// the importer sends and the server returns are compared.
func (d *Differ) Diff(ctx context.Context, rules []alerting.APIRule) (*DiffSummary, error) {
	summary := &DiffSummary{}

	for _, rule := range rules {
		if rule.UID == "" {
			summary.Missing++
			notifier.Info(rule, "has no uid, would be created")
			continue
		}

		remote, err := d.api.GetAlertRule(ctx, rule.UID)
		if err != nil {
			return summary, err
		}
		if remote == nil {
			summary.Missing++
			notifier.Info(rule, "not found remotely, would be created")
			continue
		}

		folderUID, _, err := d.folders.Lookup(ctx, rule.Folder)
		if err != nil {
			return summary, err
		}

		diff, err := ruleDiff(rule.Payload(folderUID), remote)
		if err != nil {
			return summary, err
		}
		if diff == "" {
			summary.Unchanged++
			notifier.Info(rule, "no differences")
			continue
		}

		summary.Changed++
		notifier.Warn(rule, "changed")
		fmt.Fprint(d.out, colorize(diff))
	}

	return summary, nil
}

func ruleDiff(payload alerting.RulePayload, remote map[string]any) (string, error) {
	local, err := toMap(payload)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(local))
	for key := range local {
		if _, ok := remote[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	localText, err := renderKeys(local, keys)
	if err != nil {
		return "", err
	}
	remoteText, err := renderKeys(remote, keys)
	if err != nil {
		return "", err
	}
	if localText == remoteText {
		return "", nil
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(remoteText),
		B:        difflib.SplitLines(localText),
		FromFile: "remote",
		ToFile:   "local",
		Context:  3,
	})
}

// renderKeys renders the given keys of m as indented JSON.
func renderKeys(m map[string]any, keys []string) (string, error) {
	subset := make(map[string]any, len(keys))
	for _, key := range keys {
		value := m[key]
		if durationKeys[key] {
			if s, ok := value.(string); ok {
				if seconds, ok := interval.ParseSeconds(s); ok {
					value = interval.Format(seconds)
				}
			}
		}
		subset[key] = value
	}

	data, err := json.MarshalIndent(subset, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func colorize(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			lines[i] = added.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removed.Sprint(line)
		}
	}
	return strings.Join(lines, "")
}
