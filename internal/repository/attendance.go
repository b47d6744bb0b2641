package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/Workboard/internal/models"
)

// PostgresAttendanceRepository stores daily attendance records.
type PostgresAttendanceRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAttendanceRepository creates a new PostgresAttendanceRepository using the provided *sql.DB.
func NewPostgresAttendanceRepository(db *sql.DB) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{DB: db}
}

const attendanceColumns = `id, user_id, date::text, check_in_time, check_out_time, status, notes, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (models.Attendance, error) {
	var (
		a        models.Attendance
		checkOut sql.NullTime
		notes    sql.NullString
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Date, &a.CheckInTime, &checkOut, &a.Status, &notes, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.CheckOutTime = nullTime(checkOut)
	a.Notes = nullString(notes)
	return a, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// AttendanceByDate returns the record of userID for date (YYYY-MM-DD).
func (s *PostgresAttendanceRepository) AttendanceByDate(ctx context.Context, userID, date string) (*models.Attendance, error) {
	a, err := scanAttendance(s.DB.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE user_id = $1 AND date = $2`,
		userID, date,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("AttendanceByDate: %w", err)
	}
	return &a, nil
}

// CreateAttendance inserts an open record. A second record for the same
// user and day yields models.ErrConflict.
func (s *PostgresAttendanceRepository) CreateAttendance(ctx context.Context, a *models.Attendance) error {
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO attendance (id, user_id, date, check_in_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, a.ID, a.UserID, a.Date, a.CheckInTime, a.Status, a.Notes).Scan(&a.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("CreateAttendance: %w", err)
	}
	return nil
}

// CloseAttendance checks the open record id out at the given time. notes,
// when non-nil, replaces the stored notes. A record that is already closed
// yields models.ErrNotFound.
func (s *PostgresAttendanceRepository) CloseAttendance(ctx context.Context, id string, at time.Time, notes *string) (*models.Attendance, error) {
	a, err := scanAttendance(s.DB.QueryRowContext(ctx, `
		UPDATE attendance
		   SET check_out_time = $2, status = $3, notes = COALESCE($4, notes)
		 WHERE id = $1 AND check_out_time IS NULL
		RETURNING `+attendanceColumns,
		id, at, models.AttendanceCompleted, notes,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("CloseAttendance: %w", err)
	}
	return &a, nil
}

// AttendanceHistory returns one page of records, newest day first, and the
// total number of records of userID.
func (s *PostgresAttendanceRepository) AttendanceHistory(ctx context.Context, userID string, limit, offset int) ([]models.Attendance, int, error) {
	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("AttendanceHistory count: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+attendanceColumns+` FROM attendance
		 WHERE user_id = $1
		 ORDER BY date DESC
		 LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("AttendanceHistory: %w", err)
	}
	defer rows.Close()

	records := []models.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("AttendanceHistory rows: %w", err)
	}
	return records, total, nil
}
