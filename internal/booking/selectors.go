package booking

import (
	"fmt"
	"time"

	"github.com/vetcare/portal/internal/clinic"
)

// Option is one entry of a dropdown: a submit value and a display label.
type Option struct {
	Value string
	Label string
}

// DoctorOptions builds the doctor dropdown. The leading empty option forces
// an explicit selection; labels combine the name with the humanized
// specialization, whichever shape the backend sent it in.
func DoctorOptions(doctors []clinic.Doctor) []Option {
	options := make([]Option, 0, len(doctors)+1)
	options = append(options, Option{Value: "", Label: "Choose a doctor"})
	for _, d := range doctors {
		label := d.FullName
		if spec := d.Specialization.Humanize(); spec != "" {
			label = fmt.Sprintf("%s (%s)", d.FullName, spec)
		}
		options = append(options, Option{Value: fmt.Sprintf("%d", d.ID), Label: label})
	}
	return options
}

// PetOptions builds the pet dropdown with a leading empty option.
func PetOptions(pets []clinic.Pet) []Option {
	options := make([]Option, 0, len(pets)+1)
	options = append(options, Option{Value: "", Label: "Choose a pet"})
	for _, p := range pets {
		label := p.Name
		if p.Species != "" {
			label = fmt.Sprintf("%s (%s)", p.Name, p.Species)
		}
		options = append(options, Option{Value: fmt.Sprintf("%d", p.ID), Label: label})
	}
	return options
}

// SlotButton is one cell of the slot grid.
type SlotButton struct {
	Time     time.Time
	Label    string // local wall-clock HH:MM
	Selected bool
}

// SlotGrid is the render state of the slot selector: loading, empty, or a
// grid of time buttons. It holds no state of its own.
type SlotGrid struct {
	Loading bool
	Empty   bool
	Buttons []SlotButton
}

// BuildSlotGrid derives the slot selector view from controller state.
func BuildSlotGrid(slots []time.Time, selected *time.Time, loading bool) SlotGrid {
	if loading {
		return SlotGrid{Loading: true}
	}
	if len(slots) == 0 {
		return SlotGrid{Empty: true}
	}
	buttons := make([]SlotButton, 0, len(slots))
	for _, slot := range slots {
		buttons = append(buttons, SlotButton{
			Time:     slot,
			Label:    slot.Local().Format("15:04"),
			Selected: selected != nil && slot.Equal(*selected),
		})
	}
	return SlotGrid{Buttons: buttons}
}
