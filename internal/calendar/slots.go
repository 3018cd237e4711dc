package calendar

import "slices"

// timeSlots is the same for every bookable date.
var timeSlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00",
}

// TimeSlots returns a copy of the ordered appointment start times.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

// IsTimeSlot reports whether label is one of the offered start times.
func IsTimeSlot(label string) bool {
	return slices.Contains(timeSlots, label)
}
