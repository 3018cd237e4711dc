package widget

import (
	"time"

	"github.com/wolfman30/therapy-booking/internal/booking"
	"github.com/wolfman30/therapy-booking/internal/calendar"
	"github.com/wolfman30/therapy-booking/internal/sessions"
)

// View is everything the page needs to render the widget.
type View struct {
	SessionID  string             `json:"session_id"`
	Month      MonthView          `json:"month"`
	Slots      []SlotView         `json:"slots"`
	Draft      DraftView          `json:"draft"`
	Submission booking.Submission `json:"submission"`
}

// MonthView is the calendar grid for the cursor month.
type MonthView struct {
	Label    string     `json:"label"`
	Year     int        `json:"year"`
	Month    int        `json:"month"`
	Weekdays []string   `json:"weekdays"`
	Cells    []CellView `json:"cells"`
}

// CellView is one grid position. Padding cells carry no date.
type CellView struct {
	Date      string `json:"date,omitempty"`
	Day       int    `json:"day,omitempty"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
	Today     bool   `json:"today,omitempty"`
}

type SlotView struct {
	Time     string `json:"time"`
	Enabled  bool   `json:"enabled"`
	Selected bool   `json:"selected"`
}

// DraftView echoes the form fields back to the page.
type DraftView struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Service       string `json:"service"`
	ServiceLabel  string `json:"service_label,omitempty"`
	Description   string `json:"description"`
	SelectedDate  string `json:"selected_date,omitempty"`
	FormattedDate string `json:"formatted_date,omitempty"`
	SelectedTime  string `json:"selected_time,omitempty"`
}

func buildView(sess *sessions.Session, policy calendar.Policy) *View {
	loc := policy.Location()
	today := policy.Today()
	draft := sess.Draft

	var selected time.Time
	if draft.HasDate() {
		selected = draft.SelectedDate.In(loc)
	}

	cells := make([]CellView, 0, 42)
	for _, day := range sess.Cursor.Days(loc) {
		if day.Empty() {
			cells = append(cells, CellView{})
			continue
		}
		cells = append(cells, CellView{
			Date:      day.Date.Format(calendar.DateLayout),
			Day:       day.Date.Day(),
			Available: policy.IsAvailable(day.Date),
			Selected:  !selected.IsZero() && calendar.SameDay(day.Date, selected, loc),
			Today:     day.Date.Equal(today),
		})
	}

	slots := make([]SlotView, 0, len(calendar.TimeSlots()))
	for _, label := range calendar.TimeSlots() {
		slots = append(slots, SlotView{
			Time:     label,
			Enabled:  draft.HasDate(),
			Selected: label == draft.SelectedTime,
		})
	}

	dv := DraftView{
		Name:         draft.Name,
		Email:        draft.Email,
		Phone:        draft.Phone,
		Service:      string(draft.Service),
		ServiceLabel: draft.Service.Label(),
		Description:  draft.Description,
		SelectedTime: draft.SelectedTime,
	}
	if !selected.IsZero() {
		dv.SelectedDate = selected.Format(calendar.DateLayout)
		dv.FormattedDate = booking.FormatLongDate(selected)
	}

	return &View{
		SessionID: sess.ID,
		Month: MonthView{
			Label:    sess.Cursor.Label(),
			Year:     sess.Cursor.Year,
			Month:    int(sess.Cursor.Month),
			Weekdays: calendar.WeekdayHeaders[:],
			Cells:    cells,
		},
		Slots:      slots,
		Draft:      dv,
		Submission: sess.Submission,
	}
}
