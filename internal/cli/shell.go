package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/Workboard/internal/client/query"
	"github.com/atinyakov/Workboard/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  login | signup | logout | profile
  attendance today | history | check-in | check-out
  tasks list | get ID | create | update ID | delete ID
  status   show today's attendance as last polled and unsaved changes
  help     this text, "<command> --help" for flags
  exit`

func (a *App) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that keeps today's attendance up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.repl(cmd.Context())
		},
	}
}

// repl reads one command per line. Reads are served from the cache shared by
// every line; each line counts as a focus event.
func (a *App) repl(ctx context.Context) error {
	a.interactive = true

	var watch *query.Observer[*models.Attendance]
	syncWatch := func() {
		switch authed := a.dash.Session().IsAuthenticated(); {
		case authed && watch == nil:
			watch = a.dash.WatchToday()
		case !authed && watch != nil:
			watch.Close()
			watch = nil
		}
	}
	defer func() {
		if watch != nil {
			watch.Close()
		}
	}()
	syncWatch()

	if u, ok := a.dash.Session().User(); ok {
		fmt.Fprintf(a.out, "Signed in as %s. Type \"help\" for commands.\n", u.Email)
	} else {
		fmt.Fprintln(a.out, `Not signed in. Type "login" or "signup", or "help" for commands.`)
	}

	for {
		line, err := a.prompt.Line("workboard> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		a.dash.Focus()

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help", "?":
			fmt.Fprintln(a.out, shellHelp)
			continue
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye")
			return nil
		case "status":
			if a.dash.Pending() {
				fmt.Fprintln(a.out, "Saving changes...")
			}
			if watch == nil {
				fmt.Fprintln(a.out, errNotLoggedIn)
				continue
			}
			res := watch.Result()
			if !res.HasData {
				fmt.Fprintln(a.out, "Attendance not loaded yet.")
				continue
			}
			printAttendance(a.out, res.Data)
			fmt.Fprintf(a.out, "(as of %s)\n", res.UpdatedAt.Local().Format("15:04:05"))
			continue
		}

		if err := a.execLine(ctx, args); err != nil && !errors.Is(err, errReported) {
			_, _ = color.New(color.FgRed).Fprintln(a.out, "Error:", err)
		}
		syncWatch()
	}
}

func (a *App) execLine(ctx context.Context, args []string) error {
	root := &cobra.Command{
		Use:           "workboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.AddCommand(a.commands()...)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
