package cli

import (
	"github.com/spf13/cobra"
)

func (a *App) attendanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attendance",
		Aliases: []string{"att"},
		Short:   "Check in, check out and review attendance",
	}
	cmd.AddCommand(a.todayCmd(), a.historyCmd(), a.checkCmd("check-in"), a.checkCmd("check-out"))
	return cmd
}

func (a *App) todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's attendance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := a.dash.TodayAttendance(cmd.Context())
			if err := readErr(res); err != nil {
				return err
			}
			printAttendance(a.out, res.Data)
			return nil
		},
	}
}

func (a *App) historyCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past attendance records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := a.dash.AttendanceHistory(cmd.Context(), limit, offset)
			if err := readErr(res); err != nil {
				return err
			}
			printHistory(a.out, res.Data)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "records per page (default 30)")
	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip")
	return cmd
}

// checkCmd builds check-in or check-out.
func (a *App) checkCmd(name string) *cobra.Command {
	var notes string
	short := "Check in for today"
	if name == "check-out" {
		short = "Check out for today"
	}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.dash.Session().IsAuthenticated() {
				return errNotLoggedIn
			}
			var n *string
			if cmd.Flags().Changed("notes") {
				n = &notes
			}
			if name == "check-out" {
				return reported(a.dash.CheckOut(cmd.Context(), n).Err)
			}
			return reported(a.dash.CheckIn(cmd.Context(), n).Err)
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "optional notes")
	return cmd
}
