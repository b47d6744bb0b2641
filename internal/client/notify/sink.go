package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Sink receives notifications.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Notify calls f(e).
func (f SinkFunc) Notify(e Event) { f(e) }

// Emit delivers events to s in order. A nil sink drops them.
func Emit(s Sink, events []Event) {
	if s == nil {
		return
	}
	for _, e := range events {
		s.Notify(e)
	}
}

// Multi fans every event out to all sinks.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Notify(e)
			}
		}
	})
}

// ConsoleSink prints notifications as coloured lines.
type ConsoleSink struct {
	mu  sync.Mutex
	w   io.Writer
	ok  *color.Color
	bad *color.Color
}

// NewConsoleSink writes to w. Colour is disabled automatically when w is not a terminal.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{
		w:   w,
		ok:  color.New(color.FgGreen),
		bad: color.New(color.FgRed, color.Bold),
	}
}

// Notify implements Sink.
func (c *ConsoleSink) Notify(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.Severity == SeverityError {
		_, _ = c.bad.Fprint(c.w, "✗ ")
	} else {
		_, _ = c.ok.Fprint(c.w, "✓ ")
	}
	_, _ = fmt.Fprintln(c.w, e.Message)
}

// LogSink writes notifications to a zap logger.
type LogSink struct {
	Log *zap.Logger
}

// Notify implements Sink.
func (l LogSink) Notify(e Event) {
	fields := []zap.Field{
		zap.String("severity", e.Severity.String()),
		zap.Duration("duration", e.Duration),
	}
	if e.Severity == SeverityError {
		l.Log.Warn(e.Message, fields...)
		return
	}
	l.Log.Info(e.Message, fields...)
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify implements Sink.
func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Message)
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
