package convert

import (
	"fmt"
	"strconv"

	"github.com/alexander-akhmetov/alertsync/pkg/alerting"
)

// stringOr returns m[key] as a string, or def when it is missing or empty.
func stringOr(m map[string]any, key, def string) string {
	if s := stringValue(m[key]); s != "" {
		return s
	}
	return def
}

func firstString(m map[string]any, def string, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(m[key]); s != "" {
			return s
		}
	}
	return def
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func orgID(group map[string]any) int64 {
	v, ok := group["orgId"]
	if !ok {
		return alerting.DefaultOrgID
	}

	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if id, err := strconv.ParseInt(t, 10, 64); err == nil {
			return id
		}
	}
	return alerting.DefaultOrgID
}

func mapOf(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func listOf(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}
