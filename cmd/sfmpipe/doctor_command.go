package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sfmpipe/internal/logging"
	"sfmpipe/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor <toolkit-dir> <image-dir> <output-dir>",
		Short: "Check that a run has everything it needs",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Request{
				ToolkitDir: args[0],
				ImageDir:   args[1],
				OutputDir:  args[2],
			})

			out := cmd.OutOrStdout()
			colorize := logging.IsTerminal(out)
			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			configDetail := ctx.configPath
			if !ctx.configExists {
				configDetail = "defaults (no file at " + ctx.configPath + ")"
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, configDetail, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, resultKind(result), result.Detail, colorize))
			}

			failed := preflight.Failures(results)
			fmt.Fprintln(out)
			if len(failed) == 0 {
				fmt.Fprintln(out, "Ready to run")
				return nil
			}
			return fmt.Errorf("%d preflight check(s) failed", len(failed))
		},
	}
}
