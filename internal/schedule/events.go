package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/vetcare/portal/internal/clinic"
)

// EventColor is the calendar color keyed off appointment status.
type EventColor string

const (
	ColorPlanned   EventColor = "blue"
	ColorCompleted EventColor = "green"
	ColorCancelled EventColor = "red"
)

func colorFor(status clinic.AppointmentStatus) EventColor {
	switch status {
	case clinic.StatusCompleted:
		return ColorCompleted
	case clinic.StatusCancelled:
		return ColorCancelled
	default:
		return ColorPlanned
	}
}

// Event is one calendar entry derived from an appointment.
type Event struct {
	ID     int
	Title  string
	Start  time.Time
	End    time.Time
	Color  EventColor
	Status clinic.AppointmentStatus
}

// Events projects the fetched appointments into calendar entries. Doctors see
// who is coming in ("Jane Smith: Rex"); clients and admins see the pet name.
func (v *View) Events() []Event {
	appointments := v.Appointments()
	events := make([]Event, 0, len(appointments))
	for _, a := range appointments {
		events = append(events, Event{
			ID:     a.ID,
			Title:  v.eventTitle(a),
			Start:  a.DateTime,
			End:    a.End(),
			Color:  colorFor(a.Status),
			Status: a.Status,
		})
	}
	return events
}

func (v *View) eventTitle(a clinic.Appointment) string {
	if v.viewer.Role == clinic.RoleDoctor && a.Client != nil && a.Client.FullName != "" {
		return fmt.Sprintf("%s: %s", a.Client.FullName, a.Pet.Name)
	}
	return a.Pet.Name
}

// Day groups the appointments that start on one local calendar day.
type Day struct {
	Date         time.Time // midnight, local
	Appointments []clinic.Appointment
}

// GroupByDay buckets appointments by their local start day, days ascending
// and appointments within a day ordered by start time.
func GroupByDay(appointments []clinic.Appointment) []Day {
	buckets := make(map[time.Time][]clinic.Appointment)
	for _, a := range appointments {
		local := a.DateTime.Local()
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
		buckets[day] = append(buckets[day], a)
	}
	days := make([]Day, 0, len(buckets))
	for date, items := range buckets {
		sort.Slice(items, func(i, j int) bool { return items[i].DateTime.Before(items[j].DateTime) })
		days = append(days, Day{Date: date, Appointments: items})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}
