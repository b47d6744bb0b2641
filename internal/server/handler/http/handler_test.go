package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/Workboard/internal/models"
	"github.com/atinyakov/Workboard/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	signupErr error
	loginErr  error
}

func (f *fakeAuth) Signup(ctx context.Context, data models.SignupData) (*models.AuthData, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.AuthData{User: models.User{ID: "u1", Email: data.Email, FullName: data.FullName}, Token: "tok"}, nil
}

func (f *fakeAuth) Login(ctx context.Context, creds models.LoginCredentials) (*models.AuthData, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthData{User: models.User{ID: "u1", Email: creds.Email}, Token: "tok"}, nil
}

func (f *fakeAuth) Profile(ctx context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID, Email: "a@b.co"}, nil
}

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "tok" {
		return "u1", nil
	}
	return "", service.ErrUnauthorized
}

type fakeAttendance struct {
	today      *models.Attendance
	checkInErr error
	gotNotes   *string
	gotLimit   int
	gotOffset  int
}

func (f *fakeAttendance) Today(ctx context.Context, userID string) (*models.Attendance, error) {
	return f.today, nil
}

func (f *fakeAttendance) CheckIn(ctx context.Context, userID string, notes *string) (*models.Attendance, error) {
	f.gotNotes = notes
	if f.checkInErr != nil {
		return nil, f.checkInErr
	}
	return &models.Attendance{ID: "a1", UserID: userID, Status: models.AttendancePresent}, nil
}

func (f *fakeAttendance) CheckOut(ctx context.Context, userID string, notes *string) (*models.Attendance, error) {
	return nil, service.ErrNotCheckedIn
}

func (f *fakeAttendance) History(ctx context.Context, userID string, limit, offset int) (*models.AttendancePage, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return &models.AttendancePage{Attendance: []models.Attendance{}, Pagination: models.Pagination{Limit: 30}}, nil
}

type fakeTasks struct {
	gotFilter models.TaskFilter
	gotUpdate models.UpdateTaskData
	deleted   string
	listErr   error
}

func (f *fakeTasks) List(ctx context.Context, userID string, flt models.TaskFilter) (*models.TaskPage, error) {
	f.gotFilter = flt
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &models.TaskPage{Tasks: []models.Task{{ID: "t1", Title: "x"}}, Pagination: models.Pagination{Total: 1}}, nil
}

func (f *fakeTasks) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	return nil, models.ErrNotFound
}

func (f *fakeTasks) Create(ctx context.Context, userID string, data models.CreateTaskData) (*models.Task, error) {
	return &models.Task{ID: "t2", UserID: userID, Title: data.Title}, nil
}

func (f *fakeTasks) Update(ctx context.Context, userID, id string, data models.UpdateTaskData) (*models.Task, error) {
	f.gotUpdate = data
	return &models.Task{ID: id, UserID: userID}, nil
}

func (f *fakeTasks) Delete(ctx context.Context, userID, id string) error {
	f.deleted = id
	return nil
}

type fixture struct {
	auth       *fakeAuth
	attendance *fakeAttendance
	tasks      *fakeTasks
	handler    http.Handler
}

func newFixture() *fixture {
	f := &fixture{auth: &fakeAuth{}, attendance: &fakeAttendance{}, tasks: &fakeTasks{}}
	log := zap.NewNop()
	f.handler = NewRouter(
		&AuthHandler{AuthService: f.auth, Log: log},
		&AttendanceHandler{Service: f.attendance, Log: log},
		&TaskHandler{Service: f.tasks, Log: log},
		log,
	)
	return f
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorEnvelope {
	t.Helper()
	var env models.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	return env
}

func TestSignup(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/auth/signup", `{"email":"a@b.co","password":"longenough","full_name":"Ann"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var env models.Envelope[models.AuthData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "Registration successful", env.Message)
	assert.Equal(t, "tok", env.Data.Token)
	assert.Equal(t, "Ann", env.Data.User.FullName)
}

func TestSignup_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		body    string
		code    int
		message string
	}{
		{"bad json", nil, `{`, http.StatusBadRequest, "Invalid request body"},
		{"validation", &service.ValidationError{Errors: []models.FieldError{{Field: "email", Message: "Invalid email address"}}}, `{}`, http.StatusUnprocessableEntity, "Validation failed"},
		{"taken", service.ErrEmailTaken, `{}`, http.StatusConflict, "Email is already registered"},
		{"internal", errors.New("db down"), `{}`, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.auth.signupErr = tt.err
			rec := f.do(http.MethodPost, "/api/auth/signup", tt.body, "")
			assert.Equal(t, tt.code, rec.Code)
			env := decodeFailure(t, rec)
			assert.Equal(t, tt.message, env.Message)
			if tt.name == "validation" {
				assert.Equal(t, []models.FieldError{{Field: "email", Message: "Invalid email address"}}, env.Errors)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture()
	f.auth.loginErr = service.ErrInvalidCredentials
	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.co","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeFailure(t, rec).Message)
}

func TestProfile_RequiresToken(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/auth/profile", "", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeFailure(t, rec).Message)

	rec = f.do(http.MethodGet, "/api/auth/profile", "", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	var env models.Envelope[models.UserData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "u1", env.Data.User.ID)
}

func TestRejectsNonJSONBody(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAttendanceToday_NoRecord(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/api/attendance/today", "", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"attendance":null}}`, rec.Body.String())
}

func TestCheckIn(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/attendance/check-in", "", "tok")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, f.attendance.gotNotes)
	var env models.Envelope[models.AttendanceData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Checked in successfully", env.Message)
	assert.Equal(t, "a1", env.Data.Attendance.ID)

	rec = f.do(http.MethodPost, "/api/attendance/check-in", `{"notes":"remote"}`, "tok")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.attendance.gotNotes)
	assert.Equal(t, "remote", *f.attendance.gotNotes)

	f.attendance.checkInErr = service.ErrAlreadyCheckedIn
	rec = f.do(http.MethodPost, "/api/attendance/check-in", "", "tok")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Already checked in today", decodeFailure(t, rec).Message)
}

func TestCheckOut_NotCheckedIn(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/attendance/check-out", "", "tok")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You have not checked in today", decodeFailure(t, rec).Message)
}

func TestAttendanceHistory_Paging(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/attendance/history?limit=10&offset=20", "", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, f.attendance.gotLimit)
	assert.Equal(t, 20, f.attendance.gotOffset)

	rec = f.do(http.MethodGet, "/api/attendance/history?limit=ten", "", "tok")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeFailure(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "limit", env.Errors[0].Field)
}

func TestTasks_ListFilter(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/api/tasks?status=pending&priority=high&limit=5", "", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TaskFilter{Status: models.StatusPending, Priority: models.PriorityHigh, Limit: 5}, f.tasks.gotFilter)

	var env models.Envelope[models.TaskPage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Len(t, env.Data.Tasks, 1)
	assert.Equal(t, 1, env.Data.Pagination.Total)
}

func TestTasks_ListInternalError(t *testing.T) {
	f := newFixture()
	f.tasks.listErr = errors.New("boom")
	rec := f.do(http.MethodGet, "/api/tasks", "", "tok")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTasks_GetNotFound(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/api/tasks/missing", "", "tok")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decodeFailure(t, rec).Message)
}

func TestTasks_Create(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/tasks", `{"title":"Write report"}`, "tok")
	require.Equal(t, http.StatusCreated, rec.Code)
	var env models.Envelope[models.TaskData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Task created successfully", env.Message)
	assert.Equal(t, "Write report", env.Data.Task.Title)
}

func TestTasks_UpdateClearsDueDate(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPut, "/api/tasks/t1", `{"status":"completed","due_date":null}`, "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.tasks.gotUpdate.Status)
	assert.Equal(t, models.StatusCompleted, *f.tasks.gotUpdate.Status)
	assert.True(t, f.tasks.gotUpdate.ClearDueDate)

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rec = f.do(http.MethodPut, "/api/tasks/t1", `{"due_date":"2026-05-01T00:00:00Z"}`, "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.tasks.gotUpdate.DueDate)
	assert.True(t, due.Equal(*f.tasks.gotUpdate.DueDate))
	assert.False(t, f.tasks.gotUpdate.ClearDueDate)
}

func TestTasks_Delete(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodDelete, "/api/tasks/t9", "", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t9", f.tasks.deleted)
	assert.JSONEq(t, `{"success":true,"message":"Task deleted successfully","data":{}}`, rec.Body.String())
}
