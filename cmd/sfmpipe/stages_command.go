package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sfmpipe/internal/stages"
)

func newStagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "stages",
		Short:       "List pipeline stages in execution order",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := stages.All()
			rows := make([][]string, 0, len(all))
			for i, def := range all {
				rows = append(rows, []string{strconv.Itoa(i), string(def.Name), def.Label(), def.Dir, def.Binary})
			}
			table := renderTable(
				[]column{
					numericColumn("#"),
					textColumn("Stage"),
					textColumn("Label"),
					textColumn("Directory"),
					textColumn("Executable"),
				},
				rows,
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
