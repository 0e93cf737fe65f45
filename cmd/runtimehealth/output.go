package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/types"
)

var statusColors = map[string]*color.Color{
	types.StatusHealthy: color.New(color.FgGreen, color.Bold),
	types.StatusNotice:  color.New(color.FgCyan, color.Bold),
	types.StatusWarning: color.New(color.FgYellow, color.Bold),
	types.StatusError:   color.New(color.FgRed, color.Bold),
}

// useColor resolves --color against the output writer.
func useColor(mode string, out io.Writer) (bool, error) {
	switch strings.ToLower(mode) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		f, ok := out.(*os.File)
		return ok && isTerminal(f), nil
	default:
		return false, fmt.Errorf("unsupported color mode %q (must be auto, on or off)", mode)
	}
}

func paint(status string, enabled bool) string {
	label := fmt.Sprintf("%-7s", status)
	c, ok := statusColors[status]
	if !enabled || !ok {
		return label
	}
	c.EnableColor()
	return c.Sprint(label)
}

func renderText(out io.Writer, report checkservice.Report, colored bool) {
	results := append([]types.HealthStatus(nil), report.Results...)
	checkservice.SortResults(results)

	width := 0
	for _, r := range results {
		if len(r.Source) > width {
			width = len(r.Source)
		}
	}

	for _, r := range results {
		line := fmt.Sprintf("%s  %-*s", paint(r.Status, colored), width, r.Source)
		if r.Message != "" {
			line += "  " + r.Message
		}
		if r.HelpAnchor != "" {
			line += " (#" + r.HelpAnchor + ")"
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}

	failing := 0
	for _, r := range results {
		if !r.IsHealthy() {
			failing++
		}
	}
	fmt.Fprintf(out, "\noverall: %s (%d checks, %d not healthy, %s)\n",
		paint(report.Overall, colored), len(results), failing, report.Duration.Round(1e6))
}

func renderJSON(out io.Writer, report checkservice.Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
