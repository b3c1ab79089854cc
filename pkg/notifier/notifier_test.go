package notifier

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

type resource string

func (r resource) String() string { return string(r) }

func TestNotifications(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	previous := Output
	Output = &buf
	t.Cleanup(func() { Output = previous })

	Created(resource("AlertRule.High CPU"), "uid=cpu-high")
	Updated(resource("NotificationPolicies"), "")
	Warn(resource("RuleGroup.f/cpu"), "interval update failed")
	Info(nil, "done 100%")

	require.Equal(t, "AlertRule.High CPU created uid=cpu-high\n"+
		"NotificationPolicies updated\n"+
		"RuleGroup.f/cpu interval update failed\n"+
		"done 100%\n", buf.String())
}
