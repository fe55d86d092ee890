package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ohopus/internal/deps"
)

func newDepsCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binary availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			missingRequired := false
			for _, status := range statuses {
				availability := "ok"
				if !status.Available {
					availability = "missing"
					if !status.Optional {
						missingRequired = true
					}
				}
				requirement := "required"
				if status.Optional {
					requirement = "optional"
				}
				rows = append(rows, []string{
					status.Name, status.Command, requirement, availability, status.Detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "Command", "Requirement", "Status", "Detail"}, rows, nil))

			if missingRequired {
				return fmt.Errorf("required binaries are missing")
			}
			return nil
		},
	}
}
