// Package clinic holds the domain types consumed by the portal: appointments,
// doctors, pets, clients and users. The backend owns the authoritative shape;
// dynamic response shapes (specialization string-or-object, paginated-or-plain
// lists) are normalized here, once, at the JSON boundary.
package clinic

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultAppointmentMinutes is assumed when the backend omits a duration.
const DefaultAppointmentMinutes = 45

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPlanned   AppointmentStatus = "planned"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether no further status transitions are offered.
// The portal never moves an appointment out of completed or cancelled.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Role identifies what a signed-in user may see and do.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleClient Role = "client"
)

// User is the authenticated account behind a session.
type User struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Specialization normalizes the two shapes the backend returns for a doctor
// specialization: a plain string or a nested {"name": ...} object.
type Specialization struct {
	Name string
}

func (s *Specialization) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Name = str
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.Name = obj.Name
	return nil
}

func (s Specialization) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Name)
}

// Humanize returns the display form: first letter capitalized, rest lowered.
// "OPHTHALMOLOGIST" renders as "Ophthalmologist".
func (s Specialization) Humanize() string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

// Doctor as listed for booking and managed by admins.
type Doctor struct {
	ID              int            `json:"id"`
	FullName        string         `json:"full_name"`
	Specialization  Specialization `json:"specialization"`
	ExperienceYears int            `json:"experience_years,omitempty"`
	PhoneNumber     string         `json:"phone_number,omitempty"`
	Price           float64        `json:"price,omitempty"`
	Bio             string         `json:"bio,omitempty"`
}

// Species is one of a fixed set, with arbitrary strings accepted as-is.
type Species string

const (
	SpeciesDog     Species = "DOG"
	SpeciesCat     Species = "CAT"
	SpeciesBird    Species = "BIRD"
	SpeciesFish    Species = "FISH"
	SpeciesRabbit  Species = "RABBIT"
	SpeciesHamster Species = "HAMSTER"
	SpeciesReptile Species = "REPTILE"
	SpeciesHorse   Species = "HORSE"
	SpeciesExotic  Species = "EXOTIC"
	SpeciesOther   Species = "OTHER"
)

// KnownSpecies lists the enumeration offered by pet forms.
func KnownSpecies() []Species {
	return []Species{
		SpeciesDog, SpeciesCat, SpeciesBird, SpeciesFish, SpeciesRabbit,
		SpeciesHamster, SpeciesReptile, SpeciesHorse, SpeciesExotic, SpeciesOther,
	}
}

// PetAge is the derived age supplied by the backend.
type PetAge struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

// Pet belongs to a client and is the subject of an appointment.
type Pet struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Species   Species `json:"species"`
	Breed     string  `json:"breed,omitempty"`
	BirthDate string  `json:"birth_date,omitempty"` // YYYY-MM-DD
	Age       *PetAge `json:"age,omitempty"`
}

// Client is an admin-editable pet owner record.
type Client struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address,omitempty"`
}

// AppointmentDoctor is the denormalized doctor view embedded in an appointment.
type AppointmentDoctor struct {
	ID             int            `json:"id"`
	FullName       string         `json:"full_name"`
	Specialization Specialization `json:"specialization,omitempty"`
}

// AppointmentPet is the denormalized pet view embedded in an appointment.
type AppointmentPet struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Species Species `json:"species"`
}

// AppointmentClient is the denormalized owner view embedded in an appointment.
type AppointmentClient struct {
	ID          int    `json:"id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Appointment is a scheduled visit as returned by the backend.
type Appointment struct {
	ID              int                `json:"id"`
	DateTime        time.Time          `json:"date_time"`
	DurationMinutes int                `json:"duration_minutes,omitempty"`
	Status          AppointmentStatus  `json:"status"`
	Reason          string             `json:"reason,omitempty"`
	DoctorNotes     string             `json:"doctor_notes,omitempty"`
	Doctor          AppointmentDoctor  `json:"doctor"`
	Pet             AppointmentPet     `json:"pet"`
	Client          *AppointmentClient `json:"client,omitempty"`
}

// Duration returns the visit length, falling back to the clinic default.
func (a Appointment) Duration() time.Duration {
	minutes := a.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultAppointmentMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// End is the appointment start plus its duration.
func (a Appointment) End() time.Time {
	return a.DateTime.Add(a.Duration())
}
