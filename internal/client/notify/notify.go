// Package notify maps settled operations to user-visible notifications and
// delivers them to sinks. The mapping functions are pure; only sinks have
// side effects.
package notify

import (
	"time"

	"github.com/atinyakov/Workboard/internal/client/api"
)

// Severity is the visual class of a notification.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "success"
}

// Display durations.
const (
	SuccessDuration    = 2 * time.Second
	ErrorDuration      = 4 * time.Second
	FieldErrorDuration = 5 * time.Second
)

// Event is one ephemeral notification.
type Event struct {
	Message  string
	Severity Severity
	Duration time.Duration
}

// Success returns the notification for a successful operation: the server
// message when present, else fallback. Nothing is returned when both are empty.
func Success(message, fallback string) []Event {
	if message == "" {
		message = fallback
	}
	if message == "" {
		return nil
	}
	return []Event{{Message: message, Severity: SeveritySuccess, Duration: SuccessDuration}}
}

// Failure returns the notifications for a failed operation.
//
// When the failure envelope carries a list of field errors, the result is one
// summary event followed by one event per field error. Otherwise it is a
// single event with the envelope message, or fallback when the envelope has
// no message. Errors without an envelope (network failures) use fallback, or
// the error text when fallback is empty.
func Failure(err error, fallback string) []Event {
	if err == nil {
		return nil
	}
	env, ok := api.Envelope(err)
	message := env.Message
	if message == "" {
		message = fallback
	}
	if message == "" {
		message = err.Error()
	}

	events := []Event{{Message: message, Severity: SeverityError, Duration: ErrorDuration}}
	if !ok || env.Errors == nil {
		return events
	}
	for _, fe := range env.Errors {
		events = append(events, Event{Message: fe.Message, Severity: SeverityError, Duration: FieldErrorDuration})
	}
	return events
}
