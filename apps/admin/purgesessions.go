package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) purgeSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purgesessions",
		Short: "Delete the expired web sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := cli.sessions.DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%d expired sessions deleted\n", n)
			return nil
		},
	}
}
