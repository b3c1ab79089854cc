// Package interval turns human readable evaluation intervals into the
// second counts Grafana's alert scheduler accepts.
package interval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultSeconds is used when an interval is missing or cannot be parsed.
	DefaultSeconds = 60
	// SchedulerStep is the base interval of Grafana's alert scheduler. Rule
	// group intervals must be a multiple of it.
	SchedulerStep = 10
)

// ParseSeconds parses durations such as "30s", "2m", "1h", "500ms" or a bare
// number of seconds. Fractions are truncated, milliseconds are rounded and
// never yield less than one second. It reports false for anything else.
func ParseSeconds(s string) (int, bool) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return 0, false
	}

	switch {
	case strings.HasSuffix(in, "ms"):
		v, ok := parseNumber(strings.TrimSuffix(in, "ms"))
		if !ok {
			return 0, false
		}
		return max(1, int(math.RoundToEven(v/1000))), true
	case strings.HasSuffix(in, "s"):
		return scaled(strings.TrimSuffix(in, "s"), 1)
	case strings.HasSuffix(in, "m"):
		return scaled(strings.TrimSuffix(in, "m"), 60)
	case strings.HasSuffix(in, "h"):
		return scaled(strings.TrimSuffix(in, "h"), 3600)
	default:
		return scaled(in, 1)
	}
}

// Align rounds seconds up to the next multiple of step. Results that are not
// positive become a single step. A non-positive step disables alignment.
func Align(seconds, step int) int {
	if step <= 0 {
		return seconds
	}

	q, r := seconds/step, seconds%step
	if r > 0 {
		q++
	}
	aligned := q * step
	if aligned <= 0 {
		return step
	}
	return aligned
}

// Normalize parses interval, falls back to defaultSeconds when it is missing,
// unparsable or not positive, and aligns the result to step.
func Normalize(interval string, defaultSeconds, step int) (string, int) {
	seconds, ok := ParseSeconds(interval)
	if !ok || seconds <= 0 {
		seconds = defaultSeconds
	}

	seconds = Align(seconds, step)
	return Format(seconds), seconds
}

// Format renders seconds the way Grafana prints group intervals.
func Format(seconds int) string {
	return fmt.Sprintf("%ds", seconds)
}

func scaled(number string, factor float64) (int, bool) {
	v, ok := parseNumber(number)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(v * factor)), true
}

// parseNumber accepts decimal numbers only.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if digits := strings.ToLower(strings.TrimLeft(s, "+-")); strings.HasPrefix(digits, "0x") {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
