package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankittk/tasktalk/pkg/models"
)

func newModeCmd(cf *clientFlags) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or change a user's assistant mode (plan: API only, act: also return UI steps)",
	}
	cmd.PersistentFlags().Int64Var(&userID, "user", 0, "User ID")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the user's assistant mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := cf.client().AssistantMode(cmd.Context(), userID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <plan|act>",
		Short: "Set the user's assistant mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := models.NormalizeMode(args[0])
			if !ok {
				return fmt.Errorf("mode must be %s or %s", models.ModePlan, models.ModeAct)
			}
			got, err := cf.client().SetAssistantMode(cmd.Context(), userID, mode)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Assistant mode set to %s\n", got)
			return nil
		},
	})
	return cmd
}
