package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/atinyakov/Workboard/internal/models"
	"github.com/google/uuid"
)

// Attendance history paging.
const (
	DefaultHistoryLimit = 30
	MaxPageLimit        = 100
	MaxNotesLength      = 500
)

// AttendanceRepository defines the persistence operations needed by the AttendanceService.
type AttendanceRepository interface {
	AttendanceByDate(ctx context.Context, userID, date string) (*models.Attendance, error)
	CreateAttendance(ctx context.Context, a *models.Attendance) error
	CloseAttendance(ctx context.Context, id string, at time.Time, notes *string) (*models.Attendance, error)
	AttendanceHistory(ctx context.Context, userID string, limit, offset int) ([]models.Attendance, int, error)
}

// AttendanceService keeps at most one record per user per day.
type AttendanceService struct {
	repo AttendanceRepository
	now  func() time.Time
}

// NewAttendanceService constructs an AttendanceService with the provided repository.
func NewAttendanceService(repo AttendanceRepository) *AttendanceService {
	return &AttendanceService{repo: repo, now: time.Now}
}

func (s *AttendanceService) today() (time.Time, string) {
	now := s.now()
	return now, now.Format(time.DateOnly)
}

func checkNotes(notes *string) error {
	var v validator
	v.check(notes == nil || utf8.RuneCountInString(*notes) <= MaxNotesLength, "notes", "Notes are too long")
	return v.err()
}

// Today returns the record of userID for the current day, or nil when the
// user has not checked in.
func (s *AttendanceService) Today(ctx context.Context, userID string) (*models.Attendance, error) {
	_, date := s.today()
	a, err := s.repo.AttendanceByDate(ctx, userID, date)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// CheckIn opens the record of the current day.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string, notes *string) (*models.Attendance, error) {
	if err := checkNotes(notes); err != nil {
		return nil, err
	}
	now, date := s.today()
	a := &models.Attendance{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		CheckInTime: now,
		Status:      models.AttendancePresent,
		Notes:       notes,
	}
	if err := s.repo.CreateAttendance(ctx, a); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	return a, nil
}

// CheckOut closes the open record of the current day.
func (s *AttendanceService) CheckOut(ctx context.Context, userID string, notes *string) (*models.Attendance, error) {
	if err := checkNotes(notes); err != nil {
		return nil, err
	}
	now, date := s.today()
	open, err := s.repo.AttendanceByDate(ctx, userID, date)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}
	if !open.Open() {
		return nil, ErrAlreadyCheckedOut
	}
	closed, err := s.repo.CloseAttendance(ctx, open.ID, now, notes)
	if errors.Is(err, models.ErrNotFound) {
		// Lost a race with a concurrent check-out.
		return nil, ErrAlreadyCheckedOut
	}
	return closed, err
}

// History returns one page of past records, newest first.
func (s *AttendanceService) History(ctx context.Context, userID string, limit, offset int) (*models.AttendancePage, error) {
	limit, offset = page(limit, offset, DefaultHistoryLimit, MaxPageLimit)
	records, total, err := s.repo.AttendanceHistory(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &models.AttendancePage{
		Attendance: records,
		Pagination: models.Pagination{Total: total, Limit: limit, Offset: offset},
	}, nil
}
