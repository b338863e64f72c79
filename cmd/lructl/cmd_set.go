package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type setEnv struct {
	*rootEnv
	ttl int64
}

// getSetCmd returns the definition of the set command.
func getSetCmd(root *rootEnv) *cobra.Command {
	env := &setEnv{rootEnv: root}
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under key.",
		Long: `
Stores value under key for --ttl seconds. A ttl of zero or less stores an entry
that is already expired.`,
		Args: cobra.ExactArgs(2),
		RunE: env.runSetCmd,
	}
	cmd.Flags().Int64Var(&env.ttl, "ttl", 0, "Lifetime of the entry in seconds")
	must(cmd.MarkFlagRequired("ttl"))
	return cmd
}

func (s *setEnv) runSetCmd(cmd *cobra.Command, args []string) error {
	if err := s.client().Set(cmd.Context(), args[0], args[1], s.ttl); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK %s (ttl %ds)\n", args[0], s.ttl)
	return nil
}
