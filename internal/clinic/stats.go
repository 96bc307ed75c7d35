package clinic

import "time"

// Stats summarizes a fetched appointment set for the admin dashboard.
type Stats struct {
	Total         int `json:"total"`
	Planned       int `json:"planned"`
	Completed     int `json:"completed"`
	Cancelled     int `json:"cancelled"`
	UpcomingToday int `json:"upcoming_today"`
}

// ComputeStats tallies appointments by status. UpcomingToday counts planned
// visits starting between now and local midnight.
func ComputeStats(appointments []Appointment, now time.Time) Stats {
	stats := Stats{Total: len(appointments)}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

	for _, apt := range appointments {
		switch apt.Status {
		case StatusPlanned:
			stats.Planned++
		case StatusCompleted:
			stats.Completed++
		case StatusCancelled:
			stats.Cancelled++
		}
		if apt.Status == StatusPlanned && apt.DateTime.After(now) && apt.DateTime.Before(midnight) {
			stats.UpcomingToday++
		}
	}
	return stats
}
