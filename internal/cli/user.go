package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newUserCmd(cf *clientFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	var mode string
	create := &cobra.Command{
		Use:   "create <name...>",
		Short: "Create a user and print its ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := cf.client().CreateUser(cmd.Context(), strings.Join(args, " "), mode)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created user %d %q (mode %s)\n", u.UserID, u.Name, u.PreferredMode)
			return nil
		},
	}
	create.Flags().StringVar(&mode, "mode", "", "Preferred assistant mode: plan or act (default: server setting)")
	cmd.AddCommand(create)
	return cmd
}
