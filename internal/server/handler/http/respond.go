package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/atinyakov/Workboard/internal/models"
	"github.com/atinyakov/Workboard/internal/service"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData[T any](w http.ResponseWriter, status int, message string, data T) {
	writeJSON(w, status, models.Envelope[T]{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, fieldErrors ...models.FieldError) {
	writeJSON(w, status, models.ErrorEnvelope{Message: message, Errors: fieldErrors})
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pageParams reads limit and offset from the query string. Absent values are 0.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	var fieldErrs []models.FieldError
	parse := func(name string) int {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			fieldErrs = append(fieldErrs, models.FieldError{Field: name, Message: name + " must be a non-negative integer"})
		}
		return n
	}
	limit, offset = parse("limit"), parse("offset")
	if len(fieldErrs) > 0 {
		return 0, 0, &service.ValidationError{Errors: fieldErrs}
	}
	return limit, offset, nil
}

// writeServiceError maps a service error to its HTTP status and envelope.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, notFound string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", verr.Errors...)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email is already registered")
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		writeError(w, http.StatusConflict, "Already checked in today")
	case errors.Is(err, service.ErrNotCheckedIn):
		writeError(w, http.StatusConflict, "You have not checked in today")
	case errors.Is(err, service.ErrAlreadyCheckedOut):
		writeError(w, http.StatusConflict, "Already checked out today")
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
