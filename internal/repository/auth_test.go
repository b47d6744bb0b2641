package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/Workboard/internal/models"
	"github.com/lib/pq"
)

func setupAuthMock(t *testing.T) (*PostgresAuthRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresAuthRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var userRowColumns = []string{"id", "email", "full_name", "role", "password_hash", "created_at"}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	u := &models.User{ID: "u1", Email: "ann@example.com", FullName: "Ann", Role: "employee", PasswordHash: []byte("hash")}
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, email, full_name, role, password_hash)`)).
		WithArgs("u1", "ann@example.com", "Ann", "employee", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v; want %v", u.CreatedAt, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.CreateUser(context.Background(), &models.User{ID: "u1", Email: "ann@example.com"})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("CreateUser error = %v; want ErrConflict", err)
	}
}

func TestCreateUser_Error(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(errors.New("insert failed"))

	err := repo.CreateUser(context.Background(), &models.User{ID: "u1"})
	if err == nil || errors.Is(err, models.ErrConflict) {
		t.Fatalf("CreateUser error = %v; want wrapped insert error", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, full_name, role, password_hash, created_at FROM users WHERE email = $1`)).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", "ann@example.com", "Ann", "employee", []byte("hash"), created))

	u, err := repo.GetUserByEmail(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" || string(u.PasswordHash) != "hash" {
		t.Errorf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetUserByID(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetUserByID error = %v; want ErrNotFound", err)
	}
}

func TestCreateSession(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`)).
		WithArgs("tok", "u1", expires).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateSession(context.Background(), "tok", "u1", expires); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSessionUser(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM sessions WHERE token = $1 AND expires_at > $2`)).
		WithArgs("tok", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM sessions`)).
		WithArgs("expired", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	userID, err := repo.SessionUser(context.Background(), "tok", now)
	if err != nil || userID != "u1" {
		t.Fatalf("SessionUser = %q, %v; want u1", userID, err)
	}
	if _, err := repo.SessionUser(context.Background(), "expired", now); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("SessionUser error = %v; want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
