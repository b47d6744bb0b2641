// Package gateway maps each logical dashboard operation onto exactly one
// API call. Gateways hold no state and no business logic.
package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atinyakov/Workboard/internal/client/api"
	"github.com/atinyakov/Workboard/internal/models"
)

// Default paging used when the caller leaves limit at zero.
const (
	DefaultTaskLimit    = 50
	DefaultHistoryLimit = 30
)

// Auth wraps the /auth endpoints.
type Auth struct {
	c *api.Client
}

// NewAuth creates an Auth gateway.
func NewAuth(c *api.Client) *Auth { return &Auth{c: c} }

// Login exchanges credentials for a user and token.
func (g *Auth) Login(ctx context.Context, creds models.LoginCredentials) (*models.Envelope[models.AuthData], error) {
	return api.Call[models.AuthData](ctx, g.c, http.MethodPost, "/auth/login", nil, creds)
}

// Signup registers a new account and returns its user and token.
func (g *Auth) Signup(ctx context.Context, data models.SignupData) (*models.Envelope[models.AuthData], error) {
	return api.Call[models.AuthData](ctx, g.c, http.MethodPost, "/auth/signup", nil, data)
}

// Profile returns the user owning the current token.
func (g *Auth) Profile(ctx context.Context) (*models.Envelope[models.UserData], error) {
	return api.Call[models.UserData](ctx, g.c, http.MethodGet, "/auth/profile", nil, nil)
}

// Attendance wraps the /attendance endpoints.
type Attendance struct {
	c *api.Client
}

// NewAttendance creates an Attendance gateway.
func NewAttendance(c *api.Client) *Attendance { return &Attendance{c: c} }

// Today returns today's record for the current user; Data.Attendance is nil when there is none.
func (g *Attendance) Today(ctx context.Context) (*models.Envelope[models.AttendanceData], error) {
	return api.Call[models.AttendanceData](ctx, g.c, http.MethodGet, "/attendance/today", nil, nil)
}

// History returns one page of past records.
func (g *Attendance) History(ctx context.Context, limit, offset int) (*models.Envelope[models.AttendancePage], error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return api.Call[models.AttendancePage](ctx, g.c, http.MethodGet, "/attendance/history", q, nil)
}

// CheckIn opens today's record.
func (g *Attendance) CheckIn(ctx context.Context, notes *string) (*models.Envelope[models.AttendanceData], error) {
	return api.Call[models.AttendanceData](ctx, g.c, http.MethodPost, "/attendance/check-in", nil, models.CheckNotes{Notes: notes})
}

// CheckOut closes today's open record.
func (g *Attendance) CheckOut(ctx context.Context, notes *string) (*models.Envelope[models.AttendanceData], error) {
	return api.Call[models.AttendanceData](ctx, g.c, http.MethodPost, "/attendance/check-out", nil, models.CheckNotes{Notes: notes})
}

// Tasks wraps the /tasks endpoints.
type Tasks struct {
	c *api.Client
}

// NewTasks creates a Tasks gateway.
func NewTasks(c *api.Client) *Tasks { return &Tasks{c: c} }

// List returns one page of tasks. Empty status and priority are not sent.
func (g *Tasks) List(ctx context.Context, f models.TaskFilter) (*models.Envelope[models.TaskPage], error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultTaskLimit
	}
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(f.Offset))
	return api.Call[models.TaskPage](ctx, g.c, http.MethodGet, "/tasks", q, nil)
}

// Get returns one task.
func (g *Tasks) Get(ctx context.Context, id string) (*models.Envelope[models.TaskData], error) {
	return api.Call[models.TaskData](ctx, g.c, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil)
}

// Create adds a task.
func (g *Tasks) Create(ctx context.Context, data models.CreateTaskData) (*models.Envelope[models.TaskData], error) {
	return api.Call[models.TaskData](ctx, g.c, http.MethodPost, "/tasks", nil, data)
}

// Update applies a partial update.
func (g *Tasks) Update(ctx context.Context, id string, data models.UpdateTaskData) (*models.Envelope[models.TaskData], error) {
	return api.Call[models.TaskData](ctx, g.c, http.MethodPut, "/tasks/"+url.PathEscape(id), nil, data)
}

// Delete removes a task.
func (g *Tasks) Delete(ctx context.Context, id string) (*models.Envelope[struct{}], error) {
	return api.Call[struct{}](ctx, g.c, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}
