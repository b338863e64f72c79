package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getStatsCmd(root *rootEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of live entries and the capacity.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := root.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "entries: %d\ncapacity: %d\n", stats.Len, stats.Capacity)
			return nil
		},
	}
}
