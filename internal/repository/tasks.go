package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/Workboard/internal/models"
)

// PostgresTaskRepository stores personal tasks.
type PostgresTaskRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresTaskRepository creates a new PostgresTaskRepository using the provided *sql.DB.
func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{DB: db}
}

const taskColumns = `id, user_id, title, description, status, priority, due_date, completed_at, created_at, updated_at`

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                    models.Task
		description          sql.NullString
		dueDate, completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Status, &t.Priority,
		&dueDate, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.Description = nullString(description)
	t.DueDate = nullTime(dueDate)
	t.CompletedAt = nullTime(completedAt)
	return t, nil
}

// CreateTask inserts t and fills in its timestamps.
func (s *PostgresTaskRepository) CreateTask(ctx context.Context, t *models.Task) error {
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, t.ID, t.UserID, t.Title, t.Description, t.Status, t.Priority, t.DueDate).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateTask: %w", err)
	}
	return nil
}

// TaskByID returns the task id owned by userID.
func (s *PostgresTaskRepository) TaskByID(ctx context.Context, userID, id string) (*models.Task, error) {
	t, err := scanTask(s.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("TaskByID: %w", err)
	}
	return &t, nil
}

// ListTasks returns one page of the tasks of userID matching f, newest
// first, and the number of matching tasks.
func (s *PostgresTaskRepository) ListTasks(ctx context.Context, userID string, f models.TaskFilter) ([]models.Task, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListTasks count: %w", err)
	}

	page := append(args, f.Limit, f.Offset)
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM tasks WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		taskColumns, cond, len(page)-1, len(page),
	), page...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListTasks rows: %w", err)
	}
	return tasks, total, nil
}

// UpdateTask stores every mutable field of t and refreshes UpdatedAt.
func (s *PostgresTaskRepository) UpdateTask(ctx context.Context, t *models.Task) error {
	err := s.DB.QueryRowContext(ctx, `
		UPDATE tasks
		   SET title = $3, description = $4, status = $5, priority = $6,
		       due_date = $7, completed_at = $8, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, t.ID, t.UserID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.CompletedAt).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("UpdateTask: %w", err)
	}
	return nil
}

// DeleteTask removes the task id owned by userID.
func (s *PostgresTaskRepository) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteTask: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteTask: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
