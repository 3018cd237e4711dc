// Package sessions keeps the booking widget state of one page visit.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/therapy-booking/internal/booking"
	"github.com/wolfman30/therapy-booking/internal/calendar"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session is everything the widget remembers between user events.
type Session struct {
	ID         string             `json:"id"`
	Cursor     calendar.Cursor    `json:"cursor"`
	Draft      booking.Draft      `json:"draft"`
	Submission booking.Submission `json:"submission"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// New starts a session showing the month of now.
func New(now time.Time) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Cursor:     calendar.CursorFor(now),
		Submission: booking.Submission{Status: booking.StatusIdle},
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

// Store persists sessions for the lifetime of a page visit.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
