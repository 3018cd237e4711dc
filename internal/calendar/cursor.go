// Package calendar builds the month grid shown by the booking widget and
// decides which of its dates can be booked.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// WeekdayHeaders are the column titles of the grid, Sunday first.
var WeekdayHeaders = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Cursor is the month currently displayed by the widget.
type Cursor struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// CursorFor returns the cursor for the month containing t.
func CursorFor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Next moves the cursor forward one month.
func (c Cursor) Next() Cursor {
	return c.shift(1)
}

// Prev moves the cursor back one month.
func (c Cursor) Prev() Cursor {
	return c.shift(-1)
}

// time.Date normalizes month 0 and 13 into the neighbouring years.
func (c Cursor) shift(months int) Cursor {
	first := time.Date(c.Year, c.Month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return CursorFor(first)
}

// First returns midnight of the first day of the month in loc.
func (c Cursor) First(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, loc)
}

// Label renders the cursor as "October 2026".
func (c Cursor) Label() string {
	return fmt.Sprintf("%s %d", c.Month, c.Year)
}

// DaysInMonth returns the number of days of the displayed month.
func (c Cursor) DaysInMonth() int {
	return time.Date(c.Year, c.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DayCell is one square of the grid. A zero Date marks padding.
type DayCell struct {
	Date time.Time
}

// Empty reports whether the cell is padding outside the month.
func (d DayCell) Empty() bool {
	return d.Date.IsZero()
}

// Days lays out the month in Sunday-first weeks. The first date sits under its
// weekday column and the last week is padded so len(cells)%7 == 0.
func (c Cursor) Days(loc *time.Location) []DayCell {
	first := c.First(loc)
	lead := int(first.Weekday())
	total := c.DaysInMonth()

	size := lead + total
	if rem := size % 7; rem != 0 {
		size += 7 - rem
	}

	cells := make([]DayCell, size)
	for i := range total {
		cells[lead+i] = DayCell{Date: first.AddDate(0, 0, i)}
	}
	return cells
}
