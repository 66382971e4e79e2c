package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/aarkue/OCPQ/obs"
)

// ConsoleHandler prints execution annotations to stderr as they occur,
// grounded on the teacher's annotations.OutputFormatter.
func ConsoleHandler() obs.Handler {
	useColor := color.NoColor == false
	return func(e obs.Event) {
		line := formatEvent(e, useColor)
		if line != "" {
			fmt.Fprintln(os.Stderr, line)
		}
	}
}

func formatEvent(e obs.Event, useColor bool) string {
	latency := formatLatency(e.Latency, useColor)

	switch e.Name {
	case obs.QueryInvoked:
		return fmt.Sprintf("%s Query invoked (tree size %v)", latency, e.Data["tree_size"])
	case obs.QueryComplete:
		skipped, _ := e.Data["bindings_skipped"].(bool)
		if skipped {
			return fmt.Sprintf("%s %s query complete, some bindings were skipped",
				latency, colorize("!", color.FgYellow, useColor))
		}
		return fmt.Sprintf("%s %s query complete", latency, colorize("===", color.FgGreen, useColor))
	case obs.PhaseBegin:
		return fmt.Sprintf("%s %s %v starting", latency, colorize("===", color.FgYellow, useColor), e.Data["phase"])
	case obs.PhaseEnd:
		return fmt.Sprintf("%s %v completed", latency, e.Data["phase"])
	case obs.BindStep:
		return fmt.Sprintf("%s node %v: %v produced %v bindings",
			latency, e.Data["node"], e.Data["step"], e.Data["produced"])
	case obs.CapExceeded:
		return fmt.Sprintf("%s %s cap exceeded: %v", latency, colorize("⚠", color.FgRed, useColor), e.Data["kind"])
	default:
		return fmt.Sprintf("%s %s %v", latency, e.Name, e.Data)
	}
}

func formatLatency(d interface{ String() string }, useColor bool) string {
	s := fmt.Sprintf("[%s]", d.String())
	if !useColor {
		return s
	}
	return color.GreenString(s)
}

func colorize(text string, attr color.Attribute, useColor bool) string {
	if !useColor {
		return text
	}
	return color.New(attr).Sprint(text)
}
