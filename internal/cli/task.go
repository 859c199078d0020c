package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ankittk/tasktalk/pkg/client"
	"github.com/ankittk/tasktalk/pkg/models"
)

func newTaskCmd(cf *clientFlags) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks directly, without the assistant",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if p := cmd.Root(); p.PersistentPreRunE != nil {
				if err := p.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive user ID")
			}
			return nil
		},
	}
	cmd.PersistentFlags().Int64Var(&userID, "user", 0, "User ID")

	cmd.AddCommand(newTaskListCmd(cf, &userID))
	cmd.AddCommand(newTaskAddCmd(cf, &userID))
	cmd.AddCommand(newTaskStatusCmd(cf, &userID, "done", models.StatusDone, "Mark a task as complete"))
	cmd.AddCommand(newTaskStatusCmd(cf, &userID, "reopen", models.StatusTodo, "Move a task back to todo"))
	cmd.AddCommand(newTaskDeleteCmd(cf, &userID))
	return cmd
}

func newTaskListCmd(cf *clientFlags, userID *int64) *cobra.Command {
	var q client.TaskQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := cf.client().ListTasks(cmd.Context(), *userID, q)
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().StringVar(&q.Status, "status", "", "Filter by status (todo, in_progress, done, archived, completed, ...)")
	cmd.Flags().StringVar(&q.Priority, "priority", "", "Filter by priority")
	cmd.Flags().StringVar(&q.Search, "search", "", "Filter by title substring")
	return cmd
}

func printTasks(w io.Writer, tasks []models.Task) error {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(w, "No tasks.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tSTATUS\tDUE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = *t.DueDate
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.TaskID, t.Title, t.Priority, t.Status, due)
	}
	return tw.Flush()
}

func newTaskAddCmd(cf *clientFlags, userID *int64) *cobra.Command {
	var priority, due, description string
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			in := models.TaskInput{Title: &title}
			if priority != "" {
				in.Priority = &priority
			}
			if due != "" {
				in.DueDate = &due
			}
			if description != "" {
				in.Description = &description
			}
			t, err := cf.client().CreateTask(cmd.Context(), *userID, in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %d %q (%s)\n", t.TaskID, t.Title, t.Priority)
			return nil
		},
	}
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, high or urgent (default medium)")
	cmd.Flags().StringVar(&due, "due", "", "Due date YYYY-MM-DD")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	return cmd
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task ID %q", s)
	}
	return id, nil
}

func newTaskStatusCmd(cf *clientFlags, userID *int64, use, status, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, err := cf.client().SetTaskStatus(cmd.Context(), *userID, id, status)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %d %q is now %s\n", t.TaskID, t.Title, t.Status)
			return nil
		},
	}
}

func newTaskDeleteCmd(cf *clientFlags, userID *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if err := cf.client().DeleteTask(cmd.Context(), *userID, id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}
