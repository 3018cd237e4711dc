package widget

import "errors"

var (
	// ErrSubmissionInFlight is returned while a session's booking request is
	// still being delivered.
	ErrSubmissionInFlight = errors.New("widget: a submission is already in progress")

	// ErrUnknownDirection is returned for calendar moves other than next/prev.
	ErrUnknownDirection = errors.New("widget: direction must be next or prev")

	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("widget: invalid date")
)
