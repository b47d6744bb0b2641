// Package service provides the business logic of the Workboard backend,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atinyakov/Workboard/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// DefaultRole is assigned to every new account.
const DefaultRole = "employee"

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	SessionUser(ctx context.Context, token string, now time.Time) (string, error)
}

// AuthService registers users, issues bearer tokens and resolves them.
type AuthService struct {
	repo AuthRepository
	ttl  time.Duration
	now  func() time.Time
	cost int
}

// NewAuthService constructs an AuthService issuing tokens valid for ttl.
func NewAuthService(repo AuthRepository, ttl time.Duration) *AuthService {
	return &AuthService{repo: repo, ttl: ttl, now: time.Now, cost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup validates data, stores the new user and signs them in.
func (s *AuthService) Signup(ctx context.Context, data models.SignupData) (*models.AuthData, error) {
	email := normalizeEmail(data.Email)
	fullName := strings.TrimSpace(data.FullName)

	var v validator
	_, mailErr := mail.ParseAddress(email)
	v.check(email != "", "email", "Email is required")
	v.check(email == "" || mailErr == nil, "email", "Email is invalid")
	v.check(utf8.RuneCountInString(data.Password) >= MinPasswordLength, "password",
		fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	v.check(fullName != "", "full_name", "Full name is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		Role:         DefaultRole,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.issue(ctx, u)
}

// Login checks the credentials and issues a new token.
func (s *AuthService) Login(ctx context.Context, creds models.LoginCredentials) (*models.AuthData, error) {
	var v validator
	v.check(strings.TrimSpace(creds.Email) != "", "email", "Email is required")
	v.check(creds.Password != "", "password", "Password is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(creds.Email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(creds.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

func (s *AuthService) issue(ctx context.Context, u *models.User) (*models.AuthData, error) {
	token := uuid.NewString()
	if err := s.repo.CreateSession(ctx, token, u.ID, s.now().Add(s.ttl)); err != nil {
		return nil, err
	}
	return &models.AuthData{User: *u, Token: token}, nil
}

// Profile returns the user userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// Authenticate resolves a bearer token to its user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := s.repo.SessionUser(ctx, token, s.now())
	if errors.Is(err, models.ErrNotFound) {
		return "", ErrUnauthorized
	}
	return userID, err
}
