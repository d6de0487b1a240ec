// Package availability computes which appointment slots are open for a date
// or date range from the weekly schedule, the blackout table and the
// appointments already booked in the store.
package availability

import (
	"sort"
	"strings"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
)

// WeeklySchedule maps a weekday number (1 = Sunday … 7 = Saturday) to its
// sorted, de-duplicated HH:MM slots. Read-only once built.
type WeeklySchedule map[int][]string

// Slots returns the configured slots for weekday, nil when the day is closed.
func (s WeeklySchedule) Slots(weekday int) []string {
	return s[weekday]
}

// scheduleBuilder accumulates slots per weekday as sets.
type scheduleBuilder map[int]map[string]struct{}

func (b scheduleBuilder) add(weekday int, slots []string) {
	set, ok := b[weekday]
	if !ok {
		set = map[string]struct{}{}
		b[weekday] = set
	}
	for _, slot := range slots {
		set[slot] = struct{}{}
	}
}

func (b scheduleBuilder) build() WeeklySchedule {
	out := make(WeeklySchedule, len(b))
	for weekday, set := range b {
		slots := make([]string, 0, len(set))
		for slot := range set {
			slots = append(slots, slot)
		}
		sort.Strings(slots)
		out[weekday] = slots
	}
	return out
}

// BlackoutKind distinguishes the two blackout shapes.
type BlackoutKind string

const (
	BlackoutSingleDay BlackoutKind = "single_day"
	BlackoutDateRange BlackoutKind = "date_range"
)

// Blackout is a full-day exclusion configured by hand in the store.
// From > To is not rejected; such a range blocks nothing.
type Blackout struct {
	Kind BlackoutKind  `json:"kind"`
	Tag  string        `json:"tag"`
	Day  calendar.Date `json:"day"`
	From calendar.Date `json:"from"`
	To   calendar.Date `json:"to"`
}

// Blocks reports whether the blackout suppresses date. Ranges are inclusive
// on both ends.
func (b Blackout) Blocks(date calendar.Date) bool {
	switch b.Kind {
	case BlackoutSingleDay:
		return isSingleDayTag(b.Tag) && b.Day.Equal(date)
	case BlackoutDateRange:
		return !date.Before(b.From) && !date.After(b.To)
	default:
		return false
	}
}

// isSingleDayTag reports whether a kind tag marks a one-off block
// ("Bloqueo único", "Cancelación única", ...).
func isSingleDayTag(tag string) bool {
	folded := fold(tag)
	return strings.Contains(folded, "unico") || strings.Contains(folded, "unica")
}

// Appointment is a booked row as read from the store. Date and time are kept
// raw; they are resolved when appointments are grouped by day.
type Appointment struct {
	ID        string `json:"id"`
	RawDate   any    `json:"rawDate"`
	RawTime   any    `json:"rawTime"`
	ServiceID string `json:"serviceId"`
	ClientRef string `json:"clientRef"`
	Status    string `json:"status"`
}

// Date resolves the raw date cell.
func (a Appointment) Date() (calendar.Date, bool) {
	return calendar.Parse(a.RawDate)
}

// Times returns every HH:MM in the time cell. One appointment can hold
// several comma-separated times.
func (a Appointment) Times() []string {
	return calendar.SplitTimes(a.RawTime)
}

// Cancelled reports whether the appointment was cancelled and so frees its
// slots.
func (a Appointment) Cancelled() bool {
	return strings.Contains(fold(a.Status), "cancel")
}

// DayAvailability is the computed result for one date. OpenSlots is never
// null so it serializes as [].
type DayAvailability struct {
	ISO             string   `json:"iso"`
	WeekdayBlocked  bool     `json:"weekdayBlocked"`
	BlackoutBlocked bool     `json:"blackoutBlocked"`
	Available       bool     `json:"available"`
	OpenSlots       []string `json:"openSlots"`
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
)

// fold lowercases s and strips Spanish accents.
func fold(s string) string {
	return strings.ToLower(accentFolder.Replace(strings.TrimSpace(s)))
}
