package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotFound = errors.New("key not found or expired")

func getGetCmd(root *rootEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, found, err := root.client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%q: %w", args[0], errNotFound)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}
