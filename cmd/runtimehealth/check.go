package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/config"
)

var checkFormat string

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every health check once and print the results",
	Long:  `Run every registered health check once. The exit code is 1 when any check reports an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(checkFormat)
		switch format {
		case "text", "json":
		default:
			return fmt.Errorf("unsupported format %q (must be text or json)", checkFormat)
		}
		colored, err := useColor(colorMode, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger := config.NewLogger(cfg.Log, cmd.ErrOrStderr())

		c, err := buildComponents(cfg, logger, checkservice.Options{})
		if err != nil {
			return err
		}
		defer c.close(logger)

		report, err := c.service.RunAll(cmd.Context())
		if err != nil {
			logger.Warn("results could not be recorded", "error", err)
		}

		if format == "json" {
			if err := renderJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			renderText(cmd.OutOrStdout(), report, colored)
		}

		if report.HasErrors() {
			return runtimehealth.ErrChecksFailed
		}
		return nil
	},
}
