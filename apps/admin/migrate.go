package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/yellowsub/storage/database"
)

var runMigrationFunc = database.RunMigration // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a database migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return runMigrationFunc(cmd.Context(), cli.db, cli.engine, args[0], args[1:]...)
		},
	}
}
