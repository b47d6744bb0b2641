// Package dashboard binds every user-facing operation to the cache layer:
// which identity a read uses and how fresh it must be, which reads a write
// invalidates, and what the user is told when it settles.
package dashboard

import (
	"time"

	"github.com/atinyakov/Workboard/internal/client/api"
	"github.com/atinyakov/Workboard/internal/client/gateway"
	"github.com/atinyakov/Workboard/internal/client/notify"
	"github.com/atinyakov/Workboard/internal/client/query"
	"github.com/atinyakov/Workboard/internal/client/session"
	"github.com/atinyakov/Workboard/internal/models"
	"go.uber.org/zap"
)

// Routes the dashboard navigates to.
const (
	RouteDashboard = "/dashboard"
	RouteLogin     = "/login"
)

// Freshness of the cached reads.
const (
	ProfileStaleAfter  = 5 * time.Minute
	HistoryStaleAfter  = 2 * time.Minute
	TasksStaleAfter    = time.Minute
	TodayRefetchPeriod = time.Minute
)

// Navigator moves the presentation layer to another view.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route string) { f(route) }

// Config wires a Dashboard.
type Config struct {
	Cache     *query.Client
	Session   *session.Store
	API       *api.Client
	Navigator Navigator
	// Sink receives notifications raised by the dashboard itself (logout).
	Sink notify.Sink
	Log  *zap.Logger
	// LogoutOnAuthError signs the user out when the API rejects the token.
	LogoutOnAuthError bool
}

// UpdateTaskVars are the variables of an update.
type UpdateTaskVars struct {
	ID   string
	Data models.UpdateTaskData
}

type (
	authEnvelope       = *models.Envelope[models.AuthData]
	attendanceEnvelope = *models.Envelope[models.AttendanceData]
	taskEnvelope       = *models.Envelope[models.TaskData]
	emptyEnvelope      = *models.Envelope[struct{}]
)

// Dashboard is the operation surface used by the presentation layer.
type Dashboard struct {
	cache      *query.Client
	session    *session.Store
	auth       *gateway.Auth
	attendance *gateway.Attendance
	tasks      *gateway.Tasks
	nav        Navigator
	sink       notify.Sink
	log        *zap.Logger

	logoutOnAuthError bool

	login      *query.Mutation[models.LoginCredentials, authEnvelope]
	signup     *query.Mutation[models.SignupData, authEnvelope]
	checkIn    *query.Mutation[*string, attendanceEnvelope]
	checkOut   *query.Mutation[*string, attendanceEnvelope]
	createTask *query.Mutation[models.CreateTaskData, taskEnvelope]
	updateTask *query.Mutation[UpdateTaskVars, taskEnvelope]
	deleteTask *query.Mutation[string, emptyEnvelope]
}

// New builds a Dashboard and registers the cache purge on session clear.
func New(cfg Config) *Dashboard {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	d := &Dashboard{
		cache:             cfg.Cache,
		session:           cfg.Session,
		auth:              gateway.NewAuth(cfg.API),
		attendance:        gateway.NewAttendance(cfg.API),
		tasks:             gateway.NewTasks(cfg.API),
		nav:               nav,
		sink:              cfg.Sink,
		log:               log,
		logoutOnAuthError: cfg.LogoutOnAuthError,
	}
	cfg.Session.OnClear(cfg.Cache.Clear)
	d.initMutations()
	return d
}

// Session returns the session store.
func (d *Dashboard) Session() *session.Store { return d.session }

// Cache returns the cache client.
func (d *Dashboard) Cache() *query.Client { return d.cache }

// Logout clears the session, which purges the whole cache, then tells the
// user and returns to the login view.
func (d *Dashboard) Logout() {
	if err := d.session.Clear(); err != nil {
		d.log.Warn("failed to remove saved session", zap.Error(err))
	}
	d.signedOut()
}

func (d *Dashboard) signedOut() {
	notify.Emit(d.sink, notify.Success("", "Logged out successfully"))
	d.nav.Navigate(RouteLogin)
}

// Focus tells the cache the user is back; stale focus-aware reads refetch.
func (d *Dashboard) Focus() { d.cache.Focus() }

// authFailed applies the auth error policy to a failed operation. It runs
// after the failure has been notified. Concurrent rejections sign out once.
func (d *Dashboard) authFailed(err error) {
	if !d.logoutOnAuthError || api.KindOf(err) != api.KindAuth {
		return
	}
	cleared, clearErr := d.session.ClearIfAuthenticated()
	if clearErr != nil {
		d.log.Warn("failed to remove saved session", zap.Error(clearErr))
	}
	if !cleared {
		return
	}
	d.log.Info("token rejected, signing out", zap.Error(err))
	d.signedOut()
}
