package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
)

func (cli *commandLine) listProfilesCmd() *cobra.Command {
	var search, ordering string
	cmd := &cobra.Command{
		Use:   "listprofiles",
		Short: "List the registered profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := cli.profileSvc.Query(
				cmd.Context(),
				&profile.QueryFilter{Search: search},
				core.ParseOrdering(ordering)...,
			)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tEMAIL\tCHILD\tPARENT\tCREATED\tLAST LOGIN")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.Username, p.Email,
					fullName(p.ChildFirst, p.ChildLast), fullName(p.ParentFirst, p.ParentLast),
					formatTime(p.CreatedAt), formatTime(p.LastLogin),
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter on username, email, child or parent names")
	cmd.Flags().StringVar(&ordering, "ordering", "", `comma separated fields, "-" prefixed for descending order (e.g. -created_at,username)`)
	return cmd
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
