package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/Workboard/internal/models"
	"github.com/spf13/cobra"
)

// parseDue accepts a calendar day (YYYY-MM-DD, local midnight) or an RFC 3339 time.
func parseDue(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func parseStatus(s string) (models.TaskStatus, error) {
	st := models.TaskStatus(s)
	if s != "" && !st.Valid() {
		return "", fmt.Errorf("invalid status %q: use pending, in_progress, completed or cancelled", s)
	}
	return st, nil
}

func parsePriority(s string) (models.TaskPriority, error) {
	p := models.TaskPriority(s)
	if s != "" && !p.Valid() {
		return "", fmt.Errorf("invalid priority %q: use low, medium or high", s)
	}
	return p, nil
}

func (a *App) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage personal tasks",
	}
	cmd.AddCommand(a.tasksListCmd(), a.taskGetCmd(), a.taskCreateCmd(), a.taskUpdateCmd(), a.taskDeleteCmd())
	return cmd
}

func (a *App) tasksListCmd() *cobra.Command {
	var (
		status, priority string
		limit, offset    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := parseStatus(status)
			if err != nil {
				return err
			}
			pr, err := parsePriority(priority)
			if err != nil {
				return err
			}
			res := a.dash.Tasks(cmd.Context(), models.TaskFilter{Status: st, Priority: pr, Limit: limit, Offset: offset})
			if err := readErr(res); err != nil {
				return err
			}
			printTasks(a.out, res.Data)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().IntVar(&limit, "limit", 0, "tasks per page (default 50)")
	cmd.Flags().IntVar(&offset, "offset", 0, "tasks to skip")
	return cmd
}

func (a *App) taskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.dash.Task(cmd.Context(), args[0])
			if err := readErr(res); err != nil {
				return err
			}
			printTask(a.out, res.Data)
			return nil
		},
	}
}

func (a *App) taskCreateCmd() *cobra.Command {
	var title, description, priority, due string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.dash.Session().IsAuthenticated() {
				return errNotLoggedIn
			}
			if err := a.prompt.Fill(&title, "Title: "); err != nil {
				return err
			}
			data := models.CreateTaskData{Title: title}
			if cmd.Flags().Changed("description") {
				data.Description = &description
			}
			if priority != "" {
				p, err := parsePriority(priority)
				if err != nil {
					return err
				}
				data.Priority = &p
			}
			if due != "" {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				data.DueDate = &d
			}

			res := a.dash.CreateTask(cmd.Context(), data)
			if res.Err != nil {
				return reported(res.Err)
			}
			fmt.Fprintf(a.out, "ID: %s\n", res.Data.Data.Task.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high (default medium)")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD or RFC 3339")
	return cmd
}

func (a *App) taskUpdateCmd() *cobra.Command {
	var (
		title, description, status, priority, due string
		clearDue                                  bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.dash.Session().IsAuthenticated() {
				return errNotLoggedIn
			}
			flags := cmd.Flags()
			var data models.UpdateTaskData
			if flags.Changed("title") {
				data.Title = &title
			}
			if flags.Changed("description") {
				data.Description = &description
			}
			if flags.Changed("status") {
				st, err := parseStatus(status)
				if err != nil {
					return err
				}
				data.Status = &st
			}
			if flags.Changed("priority") {
				p, err := parsePriority(priority)
				if err != nil {
					return err
				}
				data.Priority = &p
			}
			switch {
			case clearDue && flags.Changed("due"):
				return errors.New("--due and --clear-due are mutually exclusive")
			case clearDue:
				data.ClearDueDate = true
			case flags.Changed("due"):
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				data.DueDate = &d
			}
			if data.Empty() {
				return errors.New("nothing to update; pass at least one field flag")
			}
			return reported(a.dash.UpdateTask(cmd.Context(), args[0], data).Err)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress, completed or cancelled")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "new due date, YYYY-MM-DD or RFC 3339")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}

func (a *App) taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.dash.Session().IsAuthenticated() {
				return errNotLoggedIn
			}
			return reported(a.dash.DeleteTask(cmd.Context(), args[0]).Err)
		},
	}
}
