package main

import (
	"github.com/spf13/cobra"
)

func dumpCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every partition and its documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := openClient(g)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			snapshot, err := client.Maintenance.Dump(cmd.Context())
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.OutOrStdout(), snapshot, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json or yaml")

	return cmd
}
