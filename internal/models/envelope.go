package models

// Envelope is the JSON wrapper around every successful API response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// FieldError is one validation failure reported by the API.
type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorEnvelope is the JSON body of a failed API call.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Errors is nil when the server sent no field-level errors.
	Errors []FieldError `json:"errors,omitempty"`
}

// AuthData is the payload of login and signup responses.
type AuthData struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// UserData is the payload of GET /auth/profile.
type UserData struct {
	User User `json:"user"`
}

// AttendanceData carries a single, possibly absent, attendance record.
type AttendanceData struct {
	Attendance *Attendance `json:"attendance"`
}

// AttendancePage is the payload of GET /attendance/history.
type AttendancePage struct {
	Attendance []Attendance `json:"attendance"`
	Pagination Pagination   `json:"pagination"`
}

// TaskData carries a single task.
type TaskData struct {
	Task Task `json:"task"`
}

// TaskPage is the payload of GET /tasks.
type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}
