package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/Workboard/internal/models"
)

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printAttendance(w io.Writer, rec *models.Attendance) {
	if rec == nil {
		fmt.Fprintln(w, "Not checked in today.")
		return
	}
	fmt.Fprintf(w, "Date:        %s\n", rec.Date)
	fmt.Fprintf(w, "Checked in:  %s\n", formatTime(&rec.CheckInTime))
	if rec.Open() {
		fmt.Fprintln(w, "Checked out: not yet")
	} else {
		fmt.Fprintf(w, "Checked out: %s\n", formatTime(rec.CheckOutTime))
	}
	fmt.Fprintf(w, "Status:      %s\n", rec.Status)
	if rec.Notes != nil {
		fmt.Fprintf(w, "Notes:       %s\n", *rec.Notes)
	}
}

func printHistory(w io.Writer, p models.AttendancePage) {
	if len(p.Attendance) == 0 {
		fmt.Fprintln(w, "No attendance records.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCHECK-IN\tCHECK-OUT\tSTATUS\tNOTES")
	for _, rec := range p.Attendance {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.Date, formatTime(&rec.CheckInTime), formatTime(rec.CheckOutTime), rec.Status, deref(rec.Notes))
	}
	_ = tw.Flush()
	printPagination(w, len(p.Attendance), p.Pagination)
}

func printTasks(w io.Writer, p models.TaskPage) {
	if len(p.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE")
	for _, t := range p.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, dueDay(t.DueDate))
	}
	_ = tw.Flush()
	printPagination(w, len(p.Tasks), p.Pagination)
}

func printPagination(w io.Writer, n int, p models.Pagination) {
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "Showing %d-%d of %d\n", p.Offset+1, p.Offset+n, p.Total)
}

func dueDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDay(*t)
}

func printTask(w io.Writer, t models.Task) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Description: %s\n", deref(t.Description))
	fmt.Fprintf(w, "Status:      %s\n", t.Status)
	fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
	fmt.Fprintf(w, "Due:         %s\n", dueDay(t.DueDate))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "Completed:   %s\n", formatTime(t.CompletedAt))
	}
	fmt.Fprintf(w, "Updated:     %s\n", formatTime(&t.UpdatedAt))
}
