package booking

import (
	"strings"
	"time"

	"github.com/wolfman30/therapy-booking/internal/calendar"
)

// LongDateLayout renders dates as "Tuesday, October 20, 2026".
const LongDateLayout = "Monday, January 2, 2006"

// Draft is the in-progress booking request. Every With* method returns a new
// draft and leaves the receiver untouched.
type Draft struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Service      ServiceKind `json:"service"`
	Description  string      `json:"description"`
	SelectedDate *time.Time  `json:"selected_date,omitempty"`
	SelectedTime string      `json:"selected_time"`

	// RequestID identifies one delivery attempt series. Retrying an
	// unchanged draft reuses it; any edit clears it.
	RequestID string `json:"request_id,omitempty"`
}

func (d Draft) WithName(v string) Draft {
	d.Name = v
	return d
}

func (d Draft) WithEmail(v string) Draft {
	d.Email = v
	return d
}

func (d Draft) WithPhone(v string) Draft {
	d.Phone = v
	return d
}

func (d Draft) WithService(v ServiceKind) Draft {
	d.Service = v
	return d
}

func (d Draft) WithDescription(v string) Draft {
	d.Description = v
	return d
}

// WithDate selects date. Picking a different day clears the chosen time;
// picking the day already selected changes nothing.
func (d Draft) WithDate(date time.Time, loc *time.Location) Draft {
	if d.SelectedDate != nil && calendar.SameDay(*d.SelectedDate, date, loc) {
		return d
	}
	day := calendar.StartOfDay(date, loc)
	d.SelectedDate = &day
	d.SelectedTime = ""
	return d
}

// WithTime sets the chosen slot.
func (d Draft) WithTime(label string) Draft {
	d.SelectedTime = label
	return d
}

// WithRequestID stamps the draft with the key its delivery is sent under.
func (d Draft) WithRequestID(id string) Draft {
	d.RequestID = id
	return d
}

// HasDate reports whether a date has been selected.
func (d Draft) HasDate() bool {
	return d.SelectedDate != nil && !d.SelectedDate.IsZero()
}

// Missing lists the required fields that are still blank, in form order.
func (d Draft) Missing() []string {
	var missing []string
	if blank(d.Name) {
		missing = append(missing, "name")
	}
	if blank(d.Email) {
		missing = append(missing, "email")
	}
	if blank(d.Phone) {
		missing = append(missing, "phone")
	}
	if d.Service == "" {
		missing = append(missing, "service")
	}
	if !d.HasDate() {
		missing = append(missing, "date")
	}
	if blank(d.SelectedTime) {
		missing = append(missing, "time")
	}
	return missing
}

// IsEmpty reports whether the draft equals its initial state.
func (d Draft) IsEmpty() bool {
	return d.sameRequest(Draft{})
}

// sameRequest reports whether d and o describe the same booking request,
// ignoring RequestID.
func (d Draft) sameRequest(o Draft) bool {
	if d.HasDate() != o.HasDate() {
		return false
	}
	if d.HasDate() && !d.SelectedDate.Equal(*o.SelectedDate) {
		return false
	}
	d.SelectedDate, o.SelectedDate = nil, nil
	d.RequestID, o.RequestID = "", ""
	return d == o
}

// FormatLongDate renders t as "Tuesday, October 20, 2026".
func FormatLongDate(t time.Time) string {
	return t.Format(LongDateLayout)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
