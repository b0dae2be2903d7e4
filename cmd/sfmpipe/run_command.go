package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sfmpipe/internal/execrun"
	"sfmpipe/internal/logging"
	"sfmpipe/internal/pipeline"
	"sfmpipe/internal/preflight"
	"sfmpipe/internal/stages"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		verbose       bool
		silent        bool
		all           bool
		skipPreflight bool
		from          string
		to            string
	)

	cmd := &cobra.Command{
		Use:   "run <toolkit-dir> <image-dir> <output-dir>",
		Short: "Run the reconstruction stages against an image directory",
		Long: `Run camera initialization, feature extraction, image matching, feature
matching, and structure from motion in order. Each stage writes into a
numbered subdirectory of <output-dir>; the first failing stage stops the run.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && (strings.TrimSpace(from) != "" || strings.TrimSpace(to) != "") {
				return errors.New("--all cannot be combined with --from or --to")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg, verbose, silent)
			if err != nil {
				return err
			}

			req := pipeline.Request{
				ToolkitDir: args[0],
				ImageDir:   args[1],
				OutputDir:  args[2],
				From:       from,
				To:         to,
			}

			if !skipPreflight {
				selected, err := stages.Select(from, to)
				if err != nil {
					return err
				}
				results := preflight.RunAll(cmd.Context(), cfg, preflight.Request{
					ToolkitDir: req.ToolkitDir,
					ImageDir:   req.ImageDir,
					OutputDir:  req.OutputDir,
					Binaries:   stages.Binaries(selected),
				})
				for _, result := range results {
					if result.Warning && !result.Passed {
						logger.Warn("preflight warning",
							logging.String("check", result.Name),
							logging.String("detail", result.Detail),
						)
					}
				}
				if err := preflight.Err(results); err != nil {
					return err
				}
			}

			runner := execrun.New(execrun.Settings{
				Out:         cmd.OutOrStdout(),
				Verbose:     verbose,
				Silent:      silent,
				LibraryEnv:  cfg.Toolkit.LibraryEnv,
				LibraryPath: cfg.Toolkit.LibraryPath,
				Timeout:     cfg.StageTimeout(),
				Logger:      logger,
			})
			summary, err := pipeline.New(cfg, runner, pipeline.WithLogger(logger)).Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !silent {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d stage(s) for %d image(s) in %s\n",
					len(summary.Stages), summary.ImageCount, summary.Duration().Round(time.Millisecond))
				fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", summary.OutputDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print each command line and the toolkit's standard output")
	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "Suppress progress lines (failures are still printed)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Run every stage (the default)")
	cmd.Flags().StringVar(&from, "from", "", "First stage to run (name, directory, or index)")
	cmd.Flags().StringVar(&to, "to", "", "Last stage to run (name, directory, or index)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip readiness checks before the first stage")
	cmd.MarkFlagsMutuallyExclusive("verbose", "silent")
	return cmd
}
