/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The pure calculation units (worktime, voucher, benefits) never return
  errors: they degrade by skipping bad input. These errors belong to the
  layers around them (factory, store, api).

ERROR CATEGORIES:
  1. Input errors - Unparseable date keys, invalid settings
  2. Lookup errors - Missing days, unknown benefit codes
  3. Store errors - Duplicate writes

USAGE:
    if errors.Is(err, generic.ErrInvalidSettings) {
        // 400
    }

SEE ALSO:
  - factory/settings.go: Produces SettingsError
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateKey is returned when a date key is not YYYY-MM-DD.
	ErrInvalidDateKey = errors.New("invalid date key")

	// ErrInvalidSettings is returned when work settings fail range validation.
	ErrInvalidSettings = errors.New("invalid work settings")

	// ErrInvalidCatalog is returned when a benefit-code document is malformed.
	ErrInvalidCatalog = errors.New("invalid benefit code catalog")

	// ErrInvalidPunch is returned when a punch has no timestamp or an unknown type.
	ErrInvalidPunch = errors.New("invalid punch")

	// ErrDuplicatePunch is returned when a punch ID is already stored.
	// Retries with the same ID are therefore safe.
	ErrDuplicatePunch = errors.New("duplicate punch id")

	// ErrDuplicateOvertime is returned when an overtime entry ID is already stored.
	ErrDuplicateOvertime = errors.New("duplicate overtime id")

	// ErrUnknownBenefitCode is returned when a referenced code is not in the catalog.
	ErrUnknownBenefitCode = errors.New("unknown benefit code")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SettingsError names the offending settings field.
type SettingsError struct {
	Field  string
	Reason string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("invalid work settings: %s %s", e.Field, e.Reason)
}

func (e *SettingsError) Unwrap() error {
	return ErrInvalidSettings
}

// DateKeyError carries the rejected key and the parse failure.
type DateKeyError struct {
	Key string
	Err error
}

func (e *DateKeyError) Error() string {
	return fmt.Sprintf("invalid date key %q: %v", e.Key, e.Err)
}

func (e *DateKeyError) Unwrap() error {
	return ErrInvalidDateKey
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateKey) ||
		errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, ErrInvalidCatalog) ||
		errors.Is(err, ErrInvalidPunch) ||
		errors.Is(err, ErrUnknownBenefitCode)
}

// IsConflict returns true if the write collided with an existing record.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicatePunch) || errors.Is(err, ErrDuplicateOvertime)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
