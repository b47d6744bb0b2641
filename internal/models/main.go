// Package models defines the data structures shared by the Workboard client
// and the reference backend: users, attendance records, tasks, request payloads
// and the JSON response envelopes.
package models

import (
	"encoding/json"
	"time"
)

// User represents an authenticated account.
type User struct {
	// ID is the server-assigned opaque identifier.
	ID string `json:"id"`
	// Email is the login name of the user.
	Email string `json:"email"`
	// FullName is the display name.
	FullName string `json:"full_name"`
	// Role is the account role ("employee", "admin", ...).
	Role string `json:"role"`
	// PasswordHash is never serialized.
	PasswordHash []byte `json:"-"`
	// CreatedAt is the account creation time.
	CreatedAt time.Time `json:"created_at"`
}

// Attendance is one check-in/check-out record for a user on a calendar day.
// A record with a nil CheckOutTime is open; a user has at most one open record per day.
type Attendance struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`
	// Date is the calendar day in YYYY-MM-DD form.
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Open reports whether the record has not been checked out yet.
func (a *Attendance) Open() bool {
	return a != nil && a.CheckOutTime == nil
}

// Attendance statuses.
const (
	AttendancePresent   = "present"
	AttendanceCompleted = "completed"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	// StatusPending is the initial state of a new task.
	StatusPending TaskStatus = "pending"
	// StatusInProgress marks a task being worked on.
	StatusInProgress TaskStatus = "in_progress"
	// StatusCompleted marks a finished task.
	StatusCompleted TaskStatus = "completed"
	// StatusCancelled marks an abandoned task.
	StatusCancelled TaskStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TaskPriority is the urgency of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a personal work item owned by a user.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	CompletedAt *time.Time   `json:"completed_at"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// LoginCredentials is the body of POST /auth/login.
type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupData is the body of POST /auth/signup.
type SignupData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// CheckNotes is the body of the check-in and check-out calls.
type CheckNotes struct {
	Notes *string `json:"notes,omitempty"`
}

// CreateTaskData is the body of POST /tasks.
type CreateTaskData struct {
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
}

// UpdateTaskData is the body of PUT /tasks/{id}. Nil fields are left unchanged.
// ClearDueDate is encoded as an explicit "due_date": null.
type UpdateTaskData struct {
	Title        *string
	Description  *string
	Status       *TaskStatus
	Priority     *TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

type updateTaskWire struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *TaskStatus     `json:"status,omitempty"`
	Priority    *TaskPriority   `json:"priority,omitempty"`
	DueDate     json.RawMessage `json:"due_date,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (u UpdateTaskData) MarshalJSON() ([]byte, error) {
	w := updateTaskWire{
		Title:       u.Title,
		Description: u.Description,
		Status:      u.Status,
		Priority:    u.Priority,
	}
	switch {
	case u.ClearDueDate:
		w.DueDate = json.RawMessage("null")
	case u.DueDate != nil:
		b, err := json.Marshal(u.DueDate)
		if err != nil {
			return nil, err
		}
		w.DueDate = b
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *UpdateTaskData) UnmarshalJSON(b []byte) error {
	var w updateTaskWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*u = UpdateTaskData{
		Title:       w.Title,
		Description: w.Description,
		Status:      w.Status,
		Priority:    w.Priority,
	}
	if len(w.DueDate) == 0 {
		return nil
	}
	if string(w.DueDate) == "null" {
		u.ClearDueDate = true
		return nil
	}
	var due time.Time
	if err := json.Unmarshal(w.DueDate, &due); err != nil {
		return err
	}
	u.DueDate = &due
	return nil
}

// Empty reports whether the update changes nothing.
func (u UpdateTaskData) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.DueDate == nil && !u.ClearDueDate
}

// TaskFilter narrows a task listing. Empty fields are not sent.
type TaskFilter struct {
	Status   TaskStatus
	Priority TaskPriority
	Limit    int
	Offset   int
}

// Pagination describes a limit/offset page.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
