package vetapi

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/vetcare/portal/internal/clinic"
)

// ListAppointmentsParams selects either a page (list mode) or a date range
// (calendar mode). Zero values are omitted from the query.
type ListAppointmentsParams struct {
	Page      int
	Limit     int
	StartDate time.Time
	EndDate   time.Time
}

func (p ListAppointmentsParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", p.Limit))
	}
	if !p.StartDate.IsZero() {
		q.Set("start_date", p.StartDate.Format(time.RFC3339))
	}
	if !p.EndDate.IsZero() {
		q.Set("end_date", p.EndDate.Format(time.RFC3339))
	}
	return q
}

// AppointmentPage is the paginated appointments envelope.
type AppointmentPage struct {
	Items []clinic.Appointment `json:"items"`
	Total int                  `json:"total"`
}

// CreateAppointmentRequest is the booking submit payload.
type CreateAppointmentRequest struct {
	DoctorID int       `json:"doctor_id"`
	PetID    int       `json:"pet_id"`
	DateTime time.Time `json:"date_time"`
	Reason   string    `json:"reason,omitempty"`
}

// PetPayload creates or updates a pet.
type PetPayload struct {
	Name      string `json:"name"`
	Species   string `json:"species"`
	Breed     string `json:"breed,omitempty"`
	BirthDate string `json:"birth_date,omitempty"` // YYYY-MM-DD
}

// DoctorPayload creates or updates a doctor profile. Password is only set
// on create.
type DoctorPayload struct {
	Email           string  `json:"email,omitempty"`
	Password        string  `json:"password,omitempty"`
	FullName        string  `json:"full_name"`
	Specialization  string  `json:"specialization"`
	PhoneNumber     string  `json:"phone_number,omitempty"`
	ExperienceYears int     `json:"experience_years,omitempty"`
	Price           float64 `json:"price,omitempty"`
	Bio             string  `json:"bio,omitempty"`
}

// ClientPayload updates a client record.
type ClientPayload struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address,omitempty"`
}

// RegisterRequest creates a new client account.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
}

// TokenResponse is the login result.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// petListResponse accepts both shapes the backend uses for pet lists: a bare
// array or an {items,total} envelope.
type petListResponse struct {
	Items []clinic.Pet
	Total int
}

func (p *petListResponse) UnmarshalJSON(data []byte) error {
	var plain []clinic.Pet
	if err := json.Unmarshal(data, &plain); err == nil {
		p.Items = plain
		p.Total = len(plain)
		return nil
	}
	var envelope struct {
		Items []clinic.Pet `json:"items"`
		Total int          `json:"total"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	p.Items = envelope.Items
	p.Total = envelope.Total
	return nil
}
