package library

import (
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Logger is the logging surface the core needs; *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func discardLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Audit actions, one per catalog mutation.
const (
	ActionAddBook           = "ADD_BOOK"
	ActionAddEBook          = "ADD_EBOOK"
	ActionRemoveBook        = "REMOVE_BOOK"
	ActionLendBook          = "LEND_BOOK"
	ActionReturnBook        = "RETURN_BOOK"
	ActionReserveBook       = "RESERVE_BOOK"
	ActionCancelReservation = "CANCEL_RESERVATION"
	ActionReservationNotify = "RESERVATION_NOTIFY"
)

// Entry is one audit record.
type Entry struct {
	ID     uuid.UUID
	Action string
	ISBN   string
	UserID string
	Detail map[string]string
	At     time.Time
}

// AuditSink receives an Entry for every catalog mutation.
type AuditSink interface {
	Record(e Entry) error
}

// NewLogSink returns an AuditSink that writes each entry as an Info log line
// named after its action.
func NewLogSink(logger Logger) AuditSink {
	return logSink{logger: logger}
}

type logSink struct {
	logger Logger
}

func (s logSink) Record(e Entry) error {
	args := []any{"isbn", e.ISBN}
	if e.UserID != "" {
		args = append(args, "user", e.UserID)
	}
	for _, k := range slices.Sorted(maps.Keys(e.Detail)) {
		args = append(args, k, e.Detail[k])
	}
	s.logger.Info(e.Action, args...)
	return nil
}

// TeeSink records every entry in each sink in turn and returns the first error.
func TeeSink(sinks ...AuditSink) AuditSink {
	return teeSink(sinks)
}

type teeSink []AuditSink

func (t teeSink) Record(e Entry) error {
	var first error
	for _, s := range t {
		if err := s.Record(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Notifier is told when a returned copy goes to the head of a reservation queue.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }
