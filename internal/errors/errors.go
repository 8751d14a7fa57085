package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/julianstephens/habitkeeper/internal/logger"
)

var (
	// ErrNotAuthenticated is returned when no user identity is available.
	ErrNotAuthenticated = stderrors.New("not authenticated")
	// ErrHabitNotFound is returned when a habit id has no document.
	ErrHabitNotFound = stderrors.New("habit not found")
	// ErrInvalidInput is returned for rejected goals, tries, dates or times.
	ErrInvalidInput = stderrors.New("invalid input")
	// ErrStorageFailure wraps failures of the document store itself.
	ErrStorageFailure = stderrors.New("storage failure")
)

// Invalid returns an ErrInvalidInput carrying a description.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Storage wraps err as an ErrStorageFailure for operation op. It returns nil for a nil err.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// StorageError records which store operation failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailure, e.Err}
}

// PropagationError lists the dates whose forward streak update failed.
// Updates for other dates were already applied.
type PropagationError struct {
	Failed map[string]error
}

func (e *PropagationError) Error() string {
	dates := make([]string, 0, len(e.Failed))
	for d := range e.Failed {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return fmt.Sprintf("%s: propagation failed for %d day(s): %s", ErrStorageFailure, len(dates), strings.Join(dates, ", "))
}

func (e *PropagationError) Unwrap() error { return ErrStorageFailure }

// Kind returns a short label for the taxonomy class of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case stderrors.Is(err, ErrHabitNotFound):
		return "habit_not_found"
	case stderrors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case stderrors.Is(err, ErrStorageFailure):
		return "storage_failure"
	default:
		return "unknown"
	}
}

// Is and As forward to the standard library so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// New forwards to the standard library.
func New(text string) error { return stderrors.New(text) }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if stderrors.Is(err, ErrNotAuthenticated) {
		msg += " (run 'habitkeeper auth login' first)"
	}
	return msg
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "kind", Kind(err))
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
