package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankittk/tasktalk/pkg/models"
)

func newChatCmd(cf *clientFlags) *cobra.Command {
	var (
		userID int64
		mode   string
	)
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Talk to the assistant (one message, or interactive when no message is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive user ID")
			}
			c := cf.client()
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				res, err := c.Chat(cmd.Context(), userID, strings.Join(args, " "), mode)
				if err != nil {
					return err
				}
				printChat(out, res)
				return nil
			}

			_, _ = fmt.Fprintln(out, "Type a message. /reset clears the conversation, /quit exits.")
			sc := bufio.NewScanner(cmd.InOrStdin())
			for {
				_, _ = fmt.Fprint(out, "> ")
				if !sc.Scan() {
					return sc.Err()
				}
				line := strings.TrimSpace(sc.Text())
				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/reset":
					res, err := c.ResetChat(cmd.Context(), userID)
					if err != nil {
						return err
					}
					printChat(out, res)
					continue
				}
				res, err := c.Chat(cmd.Context(), userID, line, mode)
				if err != nil {
					return err
				}
				printChat(out, res)
			}
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().StringVar(&mode, "mode", "", "Assistant mode for this session: plan or act (default: the user's preference)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printChat(w io.Writer, res *models.ChatResponse) {
	_, _ = fmt.Fprintln(w, res.Response)
	for _, a := range res.Actions {
		switch a.Type {
		case models.ActionTasksListed, models.ActionUIActions:
		default:
			_, _ = fmt.Fprintf(w, "  [%s task %d]\n", a.Type, a.TaskID)
		}
	}
	for _, ui := range res.UIActions {
		line := "  ui: " + ui.Type + " " + ui.Target
		if ui.Query != "" {
			line += " " + ui.Query
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
