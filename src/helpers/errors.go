package helpers

import (
	"fmt"
	"time"

	"floorsheet-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Error Types
// -----------------------------------------------------------------------------

// FloorsheetError is the base error for the pipeline. The concrete types
// below embed it so callers can branch with errors.As.
type FloorsheetError struct {
	Message string
	Cause   error
}

func (e *FloorsheetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *FloorsheetError) Unwrap() error {
	return e.Cause
}

// TransientFetchError: a single page fetch failed but may succeed on retry.
type TransientFetchError struct{ FloorsheetError }

// FatalFetchError: the retry budget for a page is exhausted; the run aborts.
type FatalFetchError struct{ FloorsheetError }

// ParseError: the page content did not match the expected floorsheet layout.
type ParseError struct{ FloorsheetError }

// StorageError: a store could not be read or written.
type StorageError struct{ FloorsheetError }

// -----------------------------------------------------------------------------

func NewTransientFetchError(msg string, cause error) *TransientFetchError {
	return &TransientFetchError{FloorsheetError{Message: msg, Cause: cause}}
}

func NewFatalFetchError(msg string, cause error) *FatalFetchError {
	return &FatalFetchError{FloorsheetError{Message: msg, Cause: cause}}
}

func NewParseError(msg string, cause error) *ParseError {
	return &ParseError{FloorsheetError{Message: msg, Cause: cause}}
}

func NewStorageError(msg string, cause error) *StorageError {
	return &StorageError{FloorsheetError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts fn up to maxAttempts times with exponential
// backoff. The final failure is returned as a FatalFetchError wrapping the
// last underlying error.
func RetryWithBackoff(log *logger.Logger, operation string, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxAttempts, operation, lastErr, delay)
		time.Sleep(delay)
	}

	return NewFatalFetchError(fmt.Sprintf("%s failed after %d attempts", operation, maxAttempts), lastErr)
}
