package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sfmpipe/internal/ledger"
	"sfmpipe/internal/workspace"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:         "history <output-dir>",
		Short:       "Show past runs recorded for an output directory",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := workspace.NewLayout(args[0])
			if err != nil {
				return err
			}
			path := layout.StatePath(ledger.FileName)
			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "No run history in %s\n", layout.Root())
				return nil
			}

			store, err := ledger.Open(path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			if strings.TrimSpace(runID) != "" {
				return printStageHistory(cmd, store, runID)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintf(out, "No run history in %s\n", layout.Root())
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format(historyTimeLayout),
					string(run.Status),
					strconv.Itoa(run.ImageCount),
					formatDuration(run.Duration()),
					run.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{
					textColumn("Run"),
					textColumn("Started"),
					textColumn("Status"),
					numericColumn("Images"),
					numericColumn("Duration"),
					errorColumn("Error"),
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show stage details for a run id or unique prefix")
	return cmd
}

func printStageHistory(cmd *cobra.Command, store *ledger.Store, prefix string) error {
	run, err := resolveRun(cmd, store, strings.TrimSpace(prefix))
	if err != nil {
		return err
	}
	entries, err := store.StageRuns(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s, %d images)\n", run.ID, run.Status, run.ImageCount)
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.Stage,
			string(entry.Status),
			strconv.Itoa(entry.ExitCode),
			formatDuration(entry.Duration),
			entry.ErrorMessage,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{
			textColumn("Stage"),
			textColumn("Status"),
			numericColumn("Exit"),
			numericColumn("Duration"),
			errorColumn("Error"),
		},
		rows,
	))
	for _, entry := range entries {
		if entry.StderrTail == "" {
			continue
		}
		fmt.Fprintf(out, "\n%s stderr (tail):\n%s\n", entry.Stage, strings.TrimRight(entry.StderrTail, "\n"))
	}
	return nil
}

func resolveRun(cmd *cobra.Command, store *ledger.Store, prefix string) (ledger.Run, error) {
	if run, err := store.GetRun(cmd.Context(), prefix); err == nil {
		return run, nil
	}
	runs, err := store.ListRuns(cmd.Context(), 0)
	if err != nil {
		return ledger.Run{}, err
	}
	var matches []ledger.Run
	for _, run := range runs {
		if strings.HasPrefix(run.ID, prefix) {
			matches = append(matches, run)
		}
	}
	switch len(matches) {
	case 0:
		return ledger.Run{}, fmt.Errorf("%w: %s", ledger.ErrRunNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return ledger.Run{}, fmt.Errorf("run id prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
