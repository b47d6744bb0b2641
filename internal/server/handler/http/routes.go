package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/atinyakov/Workboard/internal/middleware"
	"github.com/atinyakov/Workboard/internal/service"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// tokenAuth adapts AuthService to middleware.Authenticator.
type tokenAuth struct {
	svc AuthService
}

func (a tokenAuth) Authenticate(ctx context.Context, token string) (string, error) {
	id, err := a.svc.Authenticate(ctx, token)
	if errors.Is(err, service.ErrUnauthorized) {
		return "", fmt.Errorf("%w: %w", middleware.ErrUnauthorized, err)
	}
	return id, err
}

// NewRouter constructs the HTTP handler that serves the Workboard API.
//
// Routes:
//
//	POST   /api/auth/signup          → authHandler.Signup
//	POST   /api/auth/login           → authHandler.Login
//	GET    /api/auth/profile         → authHandler.Profile
//	GET    /api/attendance/today     → attendanceHandler.Today
//	GET    /api/attendance/history   → attendanceHandler.History
//	POST   /api/attendance/check-in  → attendanceHandler.CheckIn
//	POST   /api/attendance/check-out → attendanceHandler.CheckOut
//	GET    /api/tasks                → taskHandler.List
//	POST   /api/tasks                → taskHandler.Create
//	GET    /api/tasks/{id}           → taskHandler.Get
//	PUT    /api/tasks/{id}           → taskHandler.Update
//	DELETE /api/tasks/{id}           → taskHandler.Delete
//
// Everything except signup and login requires a bearer token.
func NewRouter(
	authHandler *AuthHandler,
	attendanceHandler *AttendanceHandler,
	taskHandler *TaskHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	// Bodies, when present, must be JSON.
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(tokenAuth{svc: authHandler.AuthService}, logger))

			r.Get("/auth/profile", authHandler.Profile)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/today", attendanceHandler.Today)
				r.Get("/history", attendanceHandler.History)
				r.Post("/check-in", attendanceHandler.CheckIn)
				r.Post("/check-out", attendanceHandler.CheckOut)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
			})
		})
	})

	return r
}
