package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func resetCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every partition and registered model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes the whole index; pass --yes to confirm")
			}

			client, logger, err := openClient(g)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			if err := client.Maintenance.Reset(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Index reset")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	return cmd
}
