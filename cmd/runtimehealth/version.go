package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Build metadata, overridden with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "output format (text|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := versionPayload{
			Tool:      "runtimehealth",
			Version:   valueOrUnknown(strings.TrimSpace(Version)),
			GitCommit: strings.TrimSpace(GitCommit),
			BuildDate: strings.TrimSpace(BuildDate),
		}

		switch strings.ToLower(versionFormat) {
		case "text":
			renderVersionText(cmd.OutOrStdout(), payload)
			return nil
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		default:
			return fmt.Errorf("unsupported format %q (must be text or json)", versionFormat)
		}
	},
}

func renderVersionText(out io.Writer, p versionPayload) {
	fmt.Fprintf(out, "%s %s\n", p.Tool, p.Version)
	if p.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\n", p.GitCommit)
	}
	if p.BuildDate != "" {
		fmt.Fprintf(out, "built:  %s\n", p.BuildDate)
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
