// Package cli implements the workboard command line: one-shot commands for
// every dashboard operation and an interactive shell that keeps the cache
// alive between commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/atinyakov/Workboard/internal/client/api"
	"github.com/atinyakov/Workboard/internal/client/dashboard"
	"github.com/atinyakov/Workboard/internal/client/notify"
	"github.com/atinyakov/Workboard/internal/client/prompt"
	"github.com/atinyakov/Workboard/internal/client/query"
	"github.com/atinyakov/Workboard/internal/client/session"
	"github.com/atinyakov/Workboard/internal/config"
	"github.com/atinyakov/Workboard/internal/logger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is shown by --version.
var Version = "dev"

// errReported marks failures the user has already been notified about.
var errReported = errors.New("reported")

var errNotLoggedIn = errors.New(`not logged in; run "workboard login"`)

func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errReported, err)
}

// readErr turns a read result into the command's error.
func readErr[T any](r query.Result[T]) error {
	switch {
	case r.Status == query.StatusIdle:
		return errNotLoggedIn
	case r.Err != nil && !r.HasData:
		return reported(r.Err)
	}
	return nil
}

// App holds the state shared by the commands of one invocation.
type App struct {
	opts   *config.ClientOptions
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	log    *logger.Logger
	cache  *query.Client
	dash   *dashboard.Dashboard
	prompt *prompt.Prompter

	interactive bool

	mu    sync.Mutex
	route string
}

// lockedWriter serialises writes from commands and background notifications.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newApp(in io.Reader, out, errOut io.Writer) *App {
	a := &App{
		opts:   config.DefaultClient(),
		in:     in,
		out:    &lockedWriter{w: out},
		errOut: &lockedWriter{w: errOut},
		log:    logger.New(),
	}
	a.opts.ApplyEnv()
	return a
}

// Run executes the command line args and returns the process exit code.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := newApp(in, out, errOut)
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		if !errors.Is(err, errReported) {
			_, _ = color.New(color.FgRed).Fprintln(errOut, "Error:", err)
		}
		return 1
	}
	return 0
}

func (a *App) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "workboard",
		Short:         "Track attendance and tasks from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	a.opts.Bind(root.PersistentFlags())

	root.AddCommand(a.commands()...)
	root.AddCommand(a.shellCmd())
	return root
}

// commands builds a fresh tree of the operation commands. Flag values live
// in the closures, so the shell rebuilds the tree for every line.
func (a *App) commands() []*cobra.Command {
	return []*cobra.Command{
		a.loginCmd(),
		a.signupCmd(),
		a.logoutCmd(),
		a.profileCmd(),
		a.attendanceCmd(),
		a.tasksCmd(),
	}
}

func (a *App) setup() error {
	if err := a.log.InitConsole(a.opts.LogLevel, zapcore.AddSync(a.errOut)); err != nil {
		return err
	}
	log := a.log.Log

	store := session.NewStore(a.opts.SessionFile)
	if err := store.Load(); err != nil {
		log.Warn("ignoring saved session", zap.String("path", a.opts.SessionFile), zap.Error(err))
	}

	httpClient, err := api.NewHTTPClient(a.opts.CAFile, a.opts.Timeout)
	if err != nil {
		return err
	}

	var sink notify.Sink = notify.NewConsoleSink(a.out)
	if log.Core().Enabled(zapcore.InfoLevel) {
		sink = notify.Multi(sink, notify.LogSink{Log: log})
	}

	a.cache = query.New(sink, log)
	a.dash = dashboard.New(dashboard.Config{
		Cache:             a.cache,
		Session:           store,
		API:               api.New(a.opts.BaseURL, httpClient, store, log),
		Navigator:         dashboard.NavigatorFunc(a.navigate),
		Sink:              sink,
		Log:               log,
		LogoutOnAuthError: true,
	})
	a.prompt = prompt.New(a.in, a.out)
	return nil
}

func (a *App) teardown() {
	if a.cache != nil {
		a.cache.Close()
	}
	_ = a.log.Log.Sync()
}

func (a *App) navigate(route string) {
	a.log.Log.Debug("navigate", zap.String("route", route))
	a.mu.Lock()
	prev := a.route
	a.route = route
	a.mu.Unlock()
	if a.interactive && route == dashboard.RouteLogin && prev != dashboard.RouteLogin {
		fmt.Fprintln(a.out, `Signed out. Type "login" to sign in again.`)
	}
}
