package booking

import (
	"errors"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation error")

	// ErrDateUnavailable is returned when a weekend or past date is picked.
	ErrDateUnavailable = errors.New("date is not available for booking")

	// ErrNoDateSelected is returned when a time is picked before a date.
	ErrNoDateSelected = errors.New("select a date before choosing a time")

	// ErrUnknownTimeSlot is returned for times outside the offered slots.
	ErrUnknownTimeSlot = errors.New("time is not an offered slot")

	// ErrUnknownService is returned for service values outside the catalog.
	ErrUnknownService = errors.New("unknown service")

	// ErrDeliveryFailed wraps failures of the notification collaborator.
	ErrDeliveryFailed = errors.New("could not send your request, please try again")
)

// ValidationError reports required fields missing at submit time.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return e.Message
	}
	return e.Message + " (missing: " + strings.Join(e.Missing, ", ") + ")"
}

// Is lets callers test with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
