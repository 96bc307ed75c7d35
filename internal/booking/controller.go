// Package booking owns the appointment booking form: reference data loading,
// reactive slot fetching, field validation and submit. The controller holds
// the whole draft until submit succeeds, after which it is done and the
// caller navigates away.
package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/vetcare/portal/internal/clinic"
	"github.com/vetcare/portal/internal/vetapi"
	"github.com/vetcare/portal/pkg/logging"
)

// Field names the form inputs in the validation-error map.
type Field string

const (
	FieldDoctor      Field = "doctor"
	FieldPet         Field = "pet"
	FieldDate        Field = "date"
	FieldSlot        Field = "slot"
	FieldDescription Field = "description"
)

const (
	petPageLimit      = 100
	maxDescriptionLen = 500
)

// ErrInvalidForm is returned by Submit when client-side validation fails.
// The per-field messages are in ValidationErrors; nothing was sent.
var ErrInvalidForm = errors.New("booking: form validation failed")

// Controller is the booking form state machine. All methods are safe for
// concurrent use; fetches tag their request with a sequence number so a
// superseded response is never applied.
type Controller struct {
	api    *vetapi.Client
	logger *logging.Logger
	now    func() time.Time

	mu           sync.Mutex
	doctors      []clinic.Doctor
	pets         []clinic.Pet
	slots        []time.Time
	loading      bool
	loadingSlots bool

	doctorID     int
	petID        int
	date         string // YYYY-MM-DD
	selectedSlot *time.Time
	description  string

	// deps of the slot set currently held, used to decide when a sync
	// actually needs a refetch
	slotSeq       uint64
	fetchedDoctor int
	fetchedDate   string
	hasFetched    bool

	validationErrors map[Field]string
	bannerErr        string
	done             bool
}

// NewController creates a booking controller backed by the given API client.
func NewController(api *vetapi.Client, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		api:              api,
		logger:           logger,
		now:              time.Now,
		validationErrors: map[Field]string{},
	}
}

// Load fetches the doctor list and the first page of pets concurrently.
// If either request fails both results are discarded and a single
// load-failed banner is set; the form stays usable with empty selects.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.bannerErr = ""
	c.mu.Unlock()

	var (
		wg      sync.WaitGroup
		doctors []clinic.Doctor
		pets    []clinic.Pet
		docErr  error
		petErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		doctors, docErr = c.api.ListDoctors(ctx)
	}()
	go func() {
		defer wg.Done()
		pets, petErr = c.api.ListPets(ctx, 1, petPageLimit)
	}()
	wg.Wait()

	err := docErr
	if err == nil {
		err = petErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.logger.Warn("booking reference data load failed", "error", err)
		c.bannerErr = vetapi.Message(err)
		return err
	}
	c.doctors = doctors
	c.pets = pets
	return nil
}

// SetDoctorID updates the doctor and discards the selected slot, since slots
// are scoped to a doctor+date pair.
func (c *Controller) SetDoctorID(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doctorID = id
	c.selectedSlot = nil
	delete(c.validationErrors, FieldDoctor)
	if c.doctorID == 0 || c.date == "" {
		c.clearSlotsLocked()
	}
}

// SetDate updates the visit date (YYYY-MM-DD) and discards the selected slot.
func (c *Controller) SetDate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date = date
	c.selectedSlot = nil
	delete(c.validationErrors, FieldDate)
	if c.doctorID == 0 || c.date == "" {
		c.clearSlotsLocked()
	}
}

// SetPetID updates the pet selection.
func (c *Controller) SetPetID(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.petID = id
	delete(c.validationErrors, FieldPet)
}

// SelectSlot picks an open start time from the fetched slot list.
func (c *Controller) SelectSlot(slot time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedSlot = &slot
	delete(c.validationErrors, FieldSlot)
}

// SetDescription updates the free-text visit reason.
func (c *Controller) SetDescription(desc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.description = desc
	delete(c.validationErrors, FieldDescription)
}

// clearSlotsLocked drops the slot list immediately so stale slots are never
// shown, and invalidates any fetch still in flight.
func (c *Controller) clearSlotsLocked() {
	c.slots = nil
	c.hasFetched = false
	c.loadingSlots = false
	c.slotSeq++
}

// SyncSlots refetches the slot list when the doctor or date differs from the
// pair the current list was fetched for. Calling it again with unchanged
// dependencies is a no-op, so it can run after every form repaint. A
// response that arrives after the dependencies moved on is discarded.
func (c *Controller) SyncSlots(ctx context.Context) error {
	c.mu.Lock()
	doctorID, date := c.doctorID, c.date
	if doctorID == 0 || date == "" {
		c.clearSlotsLocked()
		c.mu.Unlock()
		return nil
	}
	if c.hasFetched && c.fetchedDoctor == doctorID && c.fetchedDate == date {
		c.mu.Unlock()
		return nil
	}
	c.slotSeq++
	seq := c.slotSeq
	c.loadingSlots = true
	c.bannerErr = ""
	c.mu.Unlock()

	slots, err := c.api.AvailableSlots(ctx, doctorID, date)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.slotSeq || doctorID != c.doctorID || date != c.date {
		c.logger.Debug("discarding stale slot response", "doctor_id", doctorID, "date", date)
		return nil
	}
	c.loadingSlots = false
	c.fetchedDoctor = doctorID
	c.fetchedDate = date
	c.hasFetched = true
	if err != nil {
		c.logger.Warn("slot fetch failed", "doctor_id", doctorID, "date", date, "error", err)
		c.slots = nil
		c.bannerErr = vetapi.Message(err)
		return err
	}
	c.slots = slots
	return nil
}

// Validate checks the draft and fully replaces the validation-error map.
// It reports whether the form may be submitted.
func (c *Controller) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := map[Field]string{}

	if c.doctorID == 0 {
		errs[FieldDoctor] = "Please select a doctor"
	}
	if c.petID == 0 {
		errs[FieldPet] = "Please select a pet"
	}

	now := c.now()
	if c.date == "" {
		errs[FieldDate] = "Please select a date"
	} else if day, err := time.ParseInLocation("2006-01-02", c.date, now.Location()); err != nil {
		errs[FieldDate] = "Please enter a valid date"
	} else {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if day.Before(today) {
			errs[FieldDate] = "Date cannot be in the past"
		}
	}

	if c.selectedSlot == nil {
		errs[FieldSlot] = "Please select a time slot"
	} else if !c.selectedSlot.After(now) {
		errs[FieldSlot] = "Time slot must be in the future"
	}

	if utf8.RuneCountInString(strings.TrimSpace(c.description)) > maxDescriptionLen {
		errs[FieldDescription] = "Description must be 500 characters or less"
	}

	c.validationErrors = errs
	return len(errs) == 0
}

// Submit validates and posts the booking. On success the controller is done
// and the draft is no longer needed; on failure the banner is set and every
// entered value is kept for retry.
func (c *Controller) Submit(ctx context.Context) (*clinic.Appointment, error) {
	if !c.Validate() {
		return nil, ErrInvalidForm
	}

	c.mu.Lock()
	req := vetapi.CreateAppointmentRequest{
		DoctorID: c.doctorID,
		PetID:    c.petID,
		DateTime: *c.selectedSlot,
		Reason:   strings.TrimSpace(c.description),
	}
	c.bannerErr = ""
	c.mu.Unlock()

	apt, err := c.api.CreateAppointment(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.bannerErr = vetapi.Message(err)
		return nil, err
	}
	c.done = true
	return apt, nil
}

// Doctors returns the loaded doctor list.
func (c *Controller) Doctors() []clinic.Doctor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doctors
}

// Pets returns the loaded pet list.
func (c *Controller) Pets() []clinic.Pet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pets
}

// Slots returns the open start times for the current doctor+date pair.
func (c *Controller) Slots() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots
}

// SelectedSlot returns the chosen slot, or nil.
func (c *Controller) SelectedSlot() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedSlot
}

// DoctorID returns the selected doctor id, 0 when unset.
func (c *Controller) DoctorID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doctorID
}

// PetID returns the selected pet id, 0 when unset.
func (c *Controller) PetID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.petID
}

// Date returns the selected visit date, "" when unset.
func (c *Controller) Date() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

// Description returns the entered visit reason.
func (c *Controller) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.description
}

// ValidationErrors returns the field error map from the last Validate call.
func (c *Controller) ValidationErrors() map[Field]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Field]string, len(c.validationErrors))
	for k, v := range c.validationErrors {
		out[k] = v
	}
	return out
}

// Err returns the banner error message, or "".
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bannerErr
}

// Loading reports whether the reference data fetch is in progress.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LoadingSlots reports whether a slot fetch is in progress.
func (c *Controller) LoadingSlots() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingSlots
}

// Done reports whether a booking was submitted successfully.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
