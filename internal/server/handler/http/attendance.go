package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/Workboard/internal/middleware"
	"github.com/atinyakov/Workboard/internal/models"
	"go.uber.org/zap"
)

// AttendanceService is the attendance API used by AttendanceHandler.
type AttendanceService interface {
	Today(ctx context.Context, userID string) (*models.Attendance, error)
	CheckIn(ctx context.Context, userID string, notes *string) (*models.Attendance, error)
	CheckOut(ctx context.Context, userID string, notes *string) (*models.Attendance, error)
	History(ctx context.Context, userID string, limit, offset int) (*models.AttendancePage, error)
}

// AttendanceHandler serves /api/attendance.
type AttendanceHandler struct {
	Service AttendanceService
	Log     *zap.Logger
}

// Today handles GET /api/attendance/today. A day without a record yields a null attendance.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.Today(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err, "Attendance not found")
		return
	}
	writeData(w, http.StatusOK, "", models.AttendanceData{Attendance: rec})
}

// History handles GET /api/attendance/history?limit=&offset=.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeServiceError(w, h.Log, err, "")
		return
	}
	p, err := h.Service.History(r.Context(), middleware.GetUserIDFromContext(r.Context()), limit, offset)
	if err != nil {
		writeServiceError(w, h.Log, err, "Attendance not found")
		return
	}
	writeData(w, http.StatusOK, "", *p)
}

// CheckIn handles POST /api/attendance/check-in.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req models.CheckNotes
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rec, err := h.Service.CheckIn(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Notes)
	if err != nil {
		writeServiceError(w, h.Log, err, "Attendance not found")
		return
	}
	writeData(w, http.StatusCreated, "Checked in successfully", models.AttendanceData{Attendance: rec})
}

// CheckOut handles POST /api/attendance/check-out.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req models.CheckNotes
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rec, err := h.Service.CheckOut(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Notes)
	if err != nil {
		writeServiceError(w, h.Log, err, "Attendance not found")
		return
	}
	writeData(w, http.StatusOK, "Checked out successfully", models.AttendanceData{Attendance: rec})
}
