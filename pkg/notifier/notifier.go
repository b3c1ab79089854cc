// Package notifier prints the user facing progress of a sync run.
package notifier

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Output receives all notifications.
var Output io.Writer = color.Output

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func write(obj fmt.Stringer, msg string) {
	if obj == nil {
		fmt.Fprintln(Output, msg)
		return
	}
	fmt.Fprintf(Output, "%s %s\n", obj.String(), msg)
}

// Info announces something that happened without a remote change.
func Info(obj fmt.Stringer, msg string) {
	write(obj, msg)
}

// Created announces a resource that was added remotely.
func Created(obj fmt.Stringer, detail string) {
	write(obj, green("created")+suffix(detail))
}

// Updated announces a resource that was changed remotely.
func Updated(obj fmt.Stringer, detail string) {
	write(obj, green("updated")+suffix(detail))
}

// Warn announces a problem that did not stop the resource from being handled.
func Warn(obj fmt.Stringer, msg string) {
	write(obj, yellow(msg))
}

// Error announces a failure to handle a resource.
func Error(obj fmt.Stringer, msg string) {
	write(obj, red(msg))
}

func suffix(detail string) string {
	if detail == "" {
		return ""
	}
	return " " + detail
}
