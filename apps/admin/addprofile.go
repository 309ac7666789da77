package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/yellowsub/core/profile"
)

func (cli *commandLine) addProfileCmd() *cobra.Command {
	var np profile.NewProfile
	cmd := &cobra.Command{
		Use:   "addprofile",
		Short: "Register a new profile. The password will be prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if np.Username == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword("Enter password:")
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			np.Password, np.ConfirmPassword = pwd, pwd
			np.ConfirmEmail = np.Email

			if err = np.Validate(cli.validate); err != nil {
				return err
			}
			p, err := cli.profileSvc.Register(cmd.Context(), np)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "profile %q created (id: %s)\n", p.Username, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&np.Username, "username", "", "the profile's username")
	cmd.Flags().StringVar(&np.Email, "email", "", "the parent's email address")
	cmd.Flags().StringVar(&np.ChildFirst, "child-first", "", "the child's first name")
	cmd.Flags().StringVar(&np.ChildLast, "child-last", "", "the child's last name")
	return cmd
}
