// Package pets holds the create/edit pet form controller.
package pets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/vetcare/portal/internal/clinic"
	"github.com/vetcare/portal/internal/vetapi"
	"github.com/vetcare/portal/pkg/logging"
)

// Form field names, used as validation error keys.
const (
	FieldName       = "name"
	FieldSpecies    = "species"
	FieldBirthMonth = "birthMonth"
)

// ErrInvalidForm is returned by Submit when validation fails; the per-field
// messages are available via Errors.
var ErrInvalidForm = errors.New("pets: form is invalid")

// API is the subset of the backend client the form depends on.
type API interface {
	CreatePet(ctx context.Context, req vetapi.PetPayload) (*clinic.Pet, error)
	UpdatePet(ctx context.Context, id int, req vetapi.PetPayload) (*clinic.Pet, error)
}

// Form collects pet details for create or edit. A zero pet id means create.
type Form struct {
	api    API
	logger *logging.Logger
	now    func() time.Time

	mu         sync.Mutex
	petID      int
	name       string
	species    string
	breed      string
	birthMonth string // YYYY-MM as typed
	errs       map[string]string
	bannerErr  string
	saved      *clinic.Pet
}

// NewForm creates an empty form that submits as a new pet.
func NewForm(api API, logger *logging.Logger) *Form {
	if logger == nil {
		logger = logging.Default()
	}
	return &Form{api: api, logger: logger, now: time.Now}
}

// NewEditForm pre-fills the form from an existing pet; Submit updates it.
func NewEditForm(api API, pet clinic.Pet, logger *logging.Logger) *Form {
	f := NewForm(api, logger)
	f.petID = pet.ID
	f.name = pet.Name
	f.species = string(pet.Species)
	f.breed = pet.Breed
	if len(pet.BirthDate) >= 7 {
		f.birthMonth = pet.BirthDate[:7]
	}
	return f
}

// SetName sets the pet name and clears its validation error.
func (f *Form) SetName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
	delete(f.errs, FieldName)
}

// SetSpecies sets the species and clears its validation error.
func (f *Form) SetSpecies(species string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.species = species
	delete(f.errs, FieldSpecies)
}

// SetBreed sets the optional breed.
func (f *Form) SetBreed(breed string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breed = breed
}

// SetBirthMonth takes the birth month as YYYY-MM and clears its error.
func (f *Form) SetBirthMonth(month string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.birthMonth = strings.TrimSpace(month)
	delete(f.errs, FieldBirthMonth)
}

// Validate checks the form and replaces the error map wholesale.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(map[string]string)
	if strings.TrimSpace(f.name) == "" {
		errs[FieldName] = "Please enter the pet's name"
	}
	if strings.TrimSpace(f.species) == "" {
		errs[FieldSpecies] = "Please choose a species"
	}
	if f.birthMonth != "" {
		month, err := time.Parse("2006-01", f.birthMonth)
		switch {
		case err != nil:
			errs[FieldBirthMonth] = "Birth month must look like 2021-06"
		case month.After(f.now()):
			errs[FieldBirthMonth] = "Birth month cannot be in the future"
		}
	}

	f.errs = errs
	return len(errs) == 0
}

// Errors returns a copy of the current validation messages.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Err returns the banner message from the last failed submit.
func (f *Form) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bannerErr
}

// Saved returns the pet produced by the last successful submit, or nil.
func (f *Form) Saved() *clinic.Pet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

// Submit validates and then creates or updates the pet. The birth month is
// sent as the first day of that month; the backend derives the age from it.
func (f *Form) Submit(ctx context.Context) error {
	if !f.Validate() {
		return ErrInvalidForm
	}

	f.mu.Lock()
	payload := vetapi.PetPayload{
		Name:    strings.TrimSpace(f.name),
		Species: strings.TrimSpace(f.species),
		Breed:   strings.TrimSpace(f.breed),
	}
	if f.birthMonth != "" {
		payload.BirthDate = f.birthMonth + "-01"
	}
	petID := f.petID
	f.mu.Unlock()

	var (
		pet *clinic.Pet
		err error
	)
	if petID == 0 {
		pet, err = f.api.CreatePet(ctx, payload)
	} else {
		pet, err = f.api.UpdatePet(ctx, petID, payload)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.bannerErr = vetapi.Message(err)
		f.logger.Warn("pet submit failed", "pet_id", petID, "error", err)
		return err
	}
	f.bannerErr = ""
	f.saved = pet
	return nil
}
