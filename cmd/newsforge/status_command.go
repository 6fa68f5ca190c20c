package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service health and job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			health, err := client.Health()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Service: %s\n", health.Status)
			fmt.Fprintf(out, "Jobs: %d total (%d queued, %d running, %d completed, %d failed)\n",
				health.Jobs.Total, health.Jobs.Queued, health.Jobs.Running,
				health.Jobs.Completed, health.Jobs.Failed)

			rows := make([][]string, 0, len(health.Dependencies))
			for _, dep := range health.Dependencies {
				state := "ok"
				if !dep.Healthy {
					state = "down"
				}
				rows = append(rows, []string{dep.Name, state, dep.Detail})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable([]string{"Dependency", "State", "Detail"}, rows))
			return nil
		},
	}
}
