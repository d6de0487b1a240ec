package availability

import (
	"sort"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
)

// Compute derives the availability of one date. It is a pure function of its
// inputs:
//
//  1. the base slots come from the date's weekday (1 = Sunday);
//  2. the day is weekday-blocked when that weekday has no slots;
//  3. the day is blackout-blocked when any blackout covers it;
//  4. every time of every non-cancelled appointment on the date is occupied;
//  5. open slots are base minus occupied, ascending;
//  6. the day is available when neither block applies and a slot is open.
//
// A blacked-out day reports no open slots at all.
func Compute(date calendar.Date, schedule WeeklySchedule, blackouts []Blackout, appointments []Appointment) DayAvailability {
	base := schedule.Slots(date.WeekdayNumber())
	day := DayAvailability{
		ISO:            date.ISO(),
		WeekdayBlocked: len(base) == 0,
		OpenSlots:      []string{},
	}

	for _, b := range blackouts {
		if b.Blocks(date) {
			day.BlackoutBlocked = true
			break
		}
	}
	if day.BlackoutBlocked || day.WeekdayBlocked {
		return day
	}

	occupied := OccupiedSlots(date, appointments)
	for _, slot := range base {
		if _, taken := occupied[slot]; !taken {
			day.OpenSlots = append(day.OpenSlots, slot)
		}
	}
	sort.Strings(day.OpenSlots)
	day.Available = len(day.OpenSlots) > 0
	return day
}

// OccupiedSlots collects the HH:MM times taken on date. Appointments on other
// dates, with unparseable dates or cancelled are ignored.
func OccupiedSlots(date calendar.Date, appointments []Appointment) map[string]struct{} {
	occupied := map[string]struct{}{}
	for _, appt := range appointments {
		if appt.Cancelled() {
			continue
		}
		d, ok := appt.Date()
		if !ok || !d.Equal(date) {
			continue
		}
		for _, t := range appt.Times() {
			occupied[t] = struct{}{}
		}
	}
	return occupied
}
