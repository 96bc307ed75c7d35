package clinic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecializationUnmarshalString(t *testing.T) {
	var d Doctor
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"full_name":"Dr. Reed","specialization":"SURGEON"}`), &d))
	assert.Equal(t, "SURGEON", d.Specialization.Name)
	assert.Equal(t, "Surgeon", d.Specialization.Humanize())
}

func TestSpecializationUnmarshalObject(t *testing.T) {
	var d Doctor
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"full_name":"Dr. Oduya","specialization":{"name":"DERMATOLOGIST"}}`), &d))
	assert.Equal(t, "DERMATOLOGIST", d.Specialization.Name)
	assert.Equal(t, "Dermatologist", d.Specialization.Humanize())
}

func TestSpecializationHumanizeEmpty(t *testing.T) {
	assert.Equal(t, "", Specialization{}.Humanize())
	assert.Equal(t, "X", Specialization{Name: "x"}.Humanize())
}

func TestSpecializationHumanizeMultibyte(t *testing.T) {
	assert.Equal(t, "Éducateur", Specialization{Name: "ÉDUCATEUR"}.Humanize())
	assert.Equal(t, "Éducateur", Specialization{Name: "éducateur"}.Humanize())
}

func TestAppointmentDurationDefault(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	apt := Appointment{DateTime: start}
	assert.Equal(t, 45*time.Minute, apt.Duration())
	assert.Equal(t, start.Add(45*time.Minute), apt.End())

	apt.DurationMinutes = 30
	assert.Equal(t, 30*time.Minute, apt.Duration())
	assert.Equal(t, start.Add(30*time.Minute), apt.End())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPlanned.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	appointments := []Appointment{
		{Status: StatusPlanned, DateTime: now.Add(2 * time.Hour)},  // today
		{Status: StatusPlanned, DateTime: now.AddDate(0, 0, 3)},    // later this week
		{Status: StatusPlanned, DateTime: now.Add(-2 * time.Hour)}, // already started
		{Status: StatusCompleted, DateTime: now.Add(-48 * time.Hour)},
		{Status: StatusCancelled, DateTime: now.Add(4 * time.Hour)},
	}

	stats := ComputeStats(appointments, now)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Planned)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 1, stats.UpcomingToday)
}
