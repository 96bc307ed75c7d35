package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetcare/portal/internal/clinic"
)

func TestDoctorOptions(t *testing.T) {
	doctors := []clinic.Doctor{
		{ID: 1, FullName: "Dr. Reed", Specialization: clinic.Specialization{Name: "SURGEON"}},
		{ID: 2, FullName: "Dr. Oduya", Specialization: clinic.Specialization{Name: "DERMATOLOGIST"}},
		{ID: 3, FullName: "Dr. Blank"},
	}

	options := DoctorOptions(doctors)
	require.Len(t, options, 4)
	assert.Equal(t, Option{Value: "", Label: "Choose a doctor"}, options[0], "empty option forces explicit selection")
	assert.Equal(t, Option{Value: "1", Label: "Dr. Reed (Surgeon)"}, options[1])
	assert.Equal(t, Option{Value: "2", Label: "Dr. Oduya (Dermatologist)"}, options[2])
	assert.Equal(t, Option{Value: "3", Label: "Dr. Blank"}, options[3])
}

func TestPetOptions(t *testing.T) {
	pets := []clinic.Pet{
		{ID: 2, Name: "Biscuit", Species: clinic.SpeciesDog},
		{ID: 5, Name: "Mango", Species: clinic.SpeciesBird},
	}

	options := PetOptions(pets)
	require.Len(t, options, 3)
	assert.Equal(t, Option{Value: "", Label: "Choose a pet"}, options[0])
	assert.Equal(t, Option{Value: "2", Label: "Biscuit (DOG)"}, options[1])
	assert.Equal(t, Option{Value: "5", Label: "Mango (BIRD)"}, options[2])
}

func TestBuildSlotGridStates(t *testing.T) {
	grid := BuildSlotGrid(nil, nil, true)
	assert.True(t, grid.Loading)

	grid = BuildSlotGrid(nil, nil, false)
	assert.True(t, grid.Empty)

	first := time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)
	second := time.Date(2025, 6, 16, 10, 45, 0, 0, time.UTC)
	grid = BuildSlotGrid([]time.Time{first, second}, &second, false)
	assert.False(t, grid.Loading)
	assert.False(t, grid.Empty)
	require.Len(t, grid.Buttons, 2)
	assert.Equal(t, first.Local().Format("15:04"), grid.Buttons[0].Label)
	assert.False(t, grid.Buttons[0].Selected)
	assert.True(t, grid.Buttons[1].Selected)
}
