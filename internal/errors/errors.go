package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/dtracker/internal/logger"
)

var (
	// ErrRemote marks a failed store operation (network or validation).
	ErrRemote = stderrors.New("store operation failed")
	// ErrMalformed marks persisted data that could not be decoded.
	ErrMalformed = stderrors.New("malformed stored data")
	// ErrNothingMatched is returned when an export or filter selects nothing.
	ErrNothingMatched = stderrors.New("nothing matched")
	// ErrHolidayReadOnly is returned when a seeded holiday would be modified.
	ErrHolidayReadOnly = stderrors.New("holidays cannot be modified or deleted")
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = stderrors.New("not found")
)

// Remote wraps err as a store failure, keeping the original error in the chain.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrRemote, op, err)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Notice returns the line shown to the user for err. Empty results are a
// notice, not a failure.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, ErrNothingMatched) {
		return fmt.Sprintf("Nothing matched: %v", err)
	}
	return Format(err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
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
