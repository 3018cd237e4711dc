// Package booking holds the appointment request form and the eBook sign-up
// form that back the landing page widget.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/therapy-booking/internal/calendar"
)

const bookingIncompleteMessage = "Please fill in all required fields and select a date and time."

// Confirmation is the payload handed to the delivery collaborator once a
// booking request passes validation.
type Confirmation struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Service       ServiceKind `json:"service"`
	Description   string      `json:"description"`
	FormattedDate string      `json:"formattedDate"`
	SelectedTime  string      `json:"selectedTime"`
	RequestID     string      `json:"requestId,omitempty"`
}

// ThankYou is the message shown to the client after delivery succeeds.
func (c Confirmation) ThankYou() string {
	return fmt.Sprintf("Thank you, %s! Your %s request for %s at %s has been received. A confirmation will be sent to %s.",
		c.Name, c.Service.Label(), c.FormattedDate, c.SelectedTime, c.Email)
}

// Deliverer forwards finished forms to whoever books the appointment and
// sends the emails. Errors must reach the user so they can retry.
type Deliverer interface {
	DeliverBooking(ctx context.Context, c Confirmation) error
	DeliverSubscription(ctx context.Context, s Subscription) error
}

// SubmissionStatus tracks the request/response cycle of a submit.
type SubmissionStatus string

const (
	StatusIdle      SubmissionStatus = "idle"
	StatusPending   SubmissionStatus = "pending"
	StatusInvalid   SubmissionStatus = "invalid"
	StatusSucceeded SubmissionStatus = "succeeded"
	StatusFailed    SubmissionStatus = "failed"
)

// Submission is the outcome of the latest submit shown under the form.
type Submission struct {
	Status       SubmissionStatus `json:"status"`
	Message      string           `json:"message,omitempty"`
	Missing      []string         `json:"missing,omitempty"`
	Confirmation *Confirmation    `json:"confirmation,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at,omitzero"`
}

// Form is the booking form controller. It is not safe for concurrent use.
type Form struct {
	policy     calendar.Policy
	draft      Draft
	submission Submission
}

// NewForm returns an empty form.
func NewForm(policy calendar.Policy) *Form {
	return RestoreForm(policy, Draft{}, Submission{Status: StatusIdle})
}

// RestoreForm rebuilds a form from previously saved state.
func RestoreForm(policy calendar.Policy, draft Draft, submission Submission) *Form {
	if submission.Status == "" {
		submission.Status = StatusIdle
	}
	return &Form{policy: policy, draft: draft, submission: submission}
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	return f.draft
}

// Submission returns the state of the latest submit.
func (f *Form) Submission() Submission {
	return f.submission
}

func (f *Form) SetName(v string) {
	f.edit(f.draft.WithName(v))
}

func (f *Form) SetEmail(v string) {
	f.edit(f.draft.WithEmail(v))
}

func (f *Form) SetPhone(v string) {
	f.edit(f.draft.WithPhone(v))
}

func (f *Form) SetDescription(v string) {
	f.edit(f.draft.WithDescription(v))
}

// SetService accepts a catalog value; an empty value clears the choice.
func (f *Form) SetService(v string) error {
	kind, err := ParseServiceKind(v)
	if err != nil {
		return err
	}
	f.edit(f.draft.WithService(kind))
	return nil
}

// SelectDate picks date when the availability policy allows it.
func (f *Form) SelectDate(date time.Time) error {
	if !f.policy.IsAvailable(date) {
		return fmt.Errorf("%w: %s", ErrDateUnavailable, date.Format(calendar.DateLayout))
	}
	f.edit(f.draft.WithDate(date, f.policy.Location()))
	return nil
}

// SelectTime picks one of the fixed slots. Whether the practitioner is really
// free then is for the delivery collaborator to confirm.
func (f *Form) SelectTime(label string) error {
	if !f.draft.HasDate() {
		return ErrNoDateSelected
	}
	if !calendar.IsTimeSlot(label) {
		return fmt.Errorf("%w: %q", ErrUnknownTimeSlot, label)
	}
	f.edit(f.draft.WithTime(label))
	return nil
}

// Validate builds the confirmation payload or reports what is missing.
func (f *Form) Validate() (Confirmation, error) {
	if verr := f.validationError(); verr != nil {
		return Confirmation{}, verr
	}
	d := f.draft
	return Confirmation{
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		Service:       d.Service,
		Description:   d.Description,
		FormattedDate: FormatLongDate(d.SelectedDate.In(f.policy.Location())),
		SelectedTime:  d.SelectedTime,
		RequestID:     d.RequestID,
	}, nil
}

// edit replaces the draft. A changed request drops its RequestID so the next
// submit is not mistaken for a retry of the old one.
func (f *Form) edit(next Draft) {
	if !next.sameRequest(f.draft) {
		next.RequestID = ""
	}
	f.draft = next
}

func (f *Form) validationError() *ValidationError {
	missing := f.draft.Missing()
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Message: bookingIncompleteMessage, Missing: missing}
}

// Submit validates the draft and hands it to d. The draft is cleared only
// after d accepts it; on any error it is left as the user typed it.
func (f *Form) Submit(ctx context.Context, d Deliverer) (*Confirmation, error) {
	if verr := f.validationError(); verr != nil {
		f.submission = Submission{
			Status:    StatusInvalid,
			Message:   verr.Message,
			Missing:   verr.Missing,
			UpdatedAt: time.Now().UTC(),
		}
		return nil, verr
	}
	conf, err := f.Validate()
	if err != nil {
		return nil, err
	}

	f.submission = Submission{Status: StatusPending, UpdatedAt: time.Now().UTC()}
	if err := d.DeliverBooking(ctx, conf); err != nil {
		f.submission = Submission{
			Status:    StatusFailed,
			Message:   ErrDeliveryFailed.Error(),
			UpdatedAt: time.Now().UTC(),
		}
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	f.draft = Draft{}
	f.submission = Submission{
		Status:       StatusSucceeded,
		Message:      conf.ThankYou(),
		Confirmation: &conf,
		UpdatedAt:    time.Now().UTC(),
	}
	return &conf, nil
}
