// Package schedule drives the appointments screen: a calendar view backed by
// a date range and a list view backed by page/limit pagination, sharing one
// fetch path, plus the status actions (cancel, complete, delete) the viewer's
// role allows.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vetcare/portal/internal/clinic"
	"github.com/vetcare/portal/internal/vetapi"
	"github.com/vetcare/portal/pkg/logging"
)

// Mode selects how appointments are fetched and presented.
type Mode string

const (
	ModeCalendar Mode = "calendar"
	ModeList     Mode = "list"
)

// State is the fetch lifecycle of the view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateErrored State = "errored"
)

// Confirmer asks the user to approve a destructive action before it runs.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// API is the subset of the backend client the view depends on.
type API interface {
	ListAppointments(ctx context.Context, params vetapi.ListAppointmentsParams) (*vetapi.AppointmentPage, error)
	CancelAppointment(ctx context.Context, id int) (*clinic.Appointment, error)
	CompleteAppointment(ctx context.Context, id int) (*clinic.Appointment, error)
	DeleteAppointment(ctx context.Context, id int) error
}

// View holds the appointments screen state. All methods are safe for
// concurrent use; Refresh may be called from a background goroutine while
// setters run on the UI side.
type View struct {
	api     API
	logger  *logging.Logger
	viewer  clinic.User
	confirm Confirmer

	mu         sync.Mutex
	mode       Mode
	page       int
	limit      int
	rangeStart time.Time
	rangeEnd   time.Time
	items      []clinic.Appointment
	total      int
	state      State
	errMsg     string
	seq        uint64
}

// NewView creates the appointments view for the signed-in user. limit is the
// list-mode page size.
func NewView(api API, viewer clinic.User, limit int, confirm Confirmer, logger *logging.Logger) *View {
	if limit <= 0 {
		limit = 10
	}
	if logger == nil {
		logger = logging.Default()
	}
	if confirm == nil {
		confirm = ConfirmFunc(func(string) bool { return true })
	}
	return &View{
		api:     api,
		logger:  logger,
		viewer:  viewer,
		confirm: confirm,
		mode:    ModeCalendar,
		page:    1,
		limit:   limit,
		state:   StateIdle,
	}
}

// SetMode switches between calendar and list presentation. Switching resets
// the list to its first page and invalidates any fetch in flight.
func (v *View) SetMode(mode Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if mode == v.mode {
		return
	}
	v.mode = mode
	v.page = 1
	v.seq++
	v.state = StateIdle
}

// SetRange sets the calendar window. The next Refresh fetches it.
func (v *View) SetRange(start, end time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rangeStart = start
	v.rangeEnd = end
	v.seq++
	v.state = StateIdle
}

// SetPage jumps the list view to the given 1-based page, clamped to the
// known page span.
func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if max := v.totalPagesLocked(); max > 0 && page > max {
		page = max
	}
	if page == v.page {
		return
	}
	v.page = page
	v.seq++
	v.state = StateIdle
}

// NextPage advances the list view when a further page exists.
func (v *View) NextPage() {
	v.mu.Lock()
	page := v.page
	canNext := page < v.totalPagesLocked()
	v.mu.Unlock()
	if canNext {
		v.SetPage(page + 1)
	}
}

// PrevPage steps the list view back when not on the first page.
func (v *View) PrevPage() {
	v.mu.Lock()
	page := v.page
	v.mu.Unlock()
	if page > 1 {
		v.SetPage(page - 1)
	}
}

// Refresh fetches appointments for the current mode. A response that arrives
// after the mode, range or page changed underneath it is discarded.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.state = StateLoading
	v.errMsg = ""
	params := v.paramsLocked()
	v.mu.Unlock()

	page, err := v.api.ListAppointments(ctx, params)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		v.logger.Debug("discarding stale appointments response", "seq", seq)
		return nil
	}
	if err != nil {
		v.state = StateErrored
		v.errMsg = vetapi.Message(err)
		v.items = nil
		v.total = 0
		return err
	}
	v.state = StateLoaded
	v.items = page.Items
	v.total = page.Total
	return nil
}

func (v *View) paramsLocked() vetapi.ListAppointmentsParams {
	if v.mode == ModeCalendar {
		return vetapi.ListAppointmentsParams{StartDate: v.rangeStart, EndDate: v.rangeEnd}
	}
	return vetapi.ListAppointmentsParams{Page: v.page, Limit: v.limit}
}

// Mode returns the current presentation mode.
func (v *View) Mode() Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// State returns the fetch lifecycle state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Err returns the banner message from the last failed fetch or action.
func (v *View) Err() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

// Appointments returns the fetched appointments.
func (v *View) Appointments() []clinic.Appointment {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]clinic.Appointment, len(v.items))
	copy(out, v.items)
	return out
}

// Page returns the current 1-based list page.
func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Total returns the backend's total appointment count for the list query.
func (v *View) Total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.total
}

// TotalPages is the number of list pages, total divided by the page size
// rounded up. Zero results still occupy one page.
func (v *View) TotalPages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalPagesLocked()
}

func (v *View) totalPagesLocked() int {
	if v.total <= 0 {
		return 1
	}
	return (v.total + v.limit - 1) / v.limit
}

// CanPrev reports whether a previous list page exists.
func (v *View) CanPrev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page > 1
}

// CanNext reports whether a further list page exists.
func (v *View) CanNext() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page < v.totalPagesLocked()
}

// CanCancel reports whether the cancel action is offered for an appointment.
// Completed and cancelled appointments stay as they are.
func (v *View) CanCancel(a clinic.Appointment) bool {
	return !a.Status.Terminal()
}

// CanComplete reports whether the complete action is offered. Only doctors
// close out visits.
func (v *View) CanComplete(a clinic.Appointment) bool {
	return v.viewer.Role == clinic.RoleDoctor && !a.Status.Terminal()
}

// CanDelete reports whether the delete action is offered. Deletion is an
// admin cleanup tool, independent of status.
func (v *View) CanDelete(a clinic.Appointment) bool {
	return v.viewer.Role == clinic.RoleAdmin
}

// find returns the fetched appointment with the given id, if any.
func (v *View) find(id int) (clinic.Appointment, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, a := range v.items {
		if a.ID == id {
			return a, true
		}
	}
	return clinic.Appointment{}, false
}

// Cancel marks an appointment cancelled after user confirmation, then
// refetches the view. Terminal appointments are refused before any request
// is sent.
func (v *View) Cancel(ctx context.Context, id int) error {
	if a, ok := v.find(id); ok && !v.CanCancel(a) {
		return fmt.Errorf("schedule: appointment %d can no longer be cancelled", id)
	}
	if !v.confirm.Confirm("Cancel this appointment?") {
		return nil
	}
	if _, err := v.api.CancelAppointment(ctx, id); err != nil {
		v.setActionError(err)
		return err
	}
	return v.Refresh(ctx)
}

// Complete marks an appointment completed after user confirmation, then
// refetches the view. Only doctors may complete, and never a terminal
// appointment.
func (v *View) Complete(ctx context.Context, id int) error {
	if v.viewer.Role != clinic.RoleDoctor {
		return fmt.Errorf("schedule: only doctors mark appointments completed")
	}
	if a, ok := v.find(id); ok && !v.CanComplete(a) {
		return fmt.Errorf("schedule: appointment %d is already closed", id)
	}
	if !v.confirm.Confirm("Mark this appointment completed?") {
		return nil
	}
	if _, err := v.api.CompleteAppointment(ctx, id); err != nil {
		v.setActionError(err)
		return err
	}
	return v.Refresh(ctx)
}

// Delete removes an appointment after user confirmation, then refetches.
// Deletion is admin only.
func (v *View) Delete(ctx context.Context, id int) error {
	if v.viewer.Role != clinic.RoleAdmin {
		return fmt.Errorf("schedule: only admins delete appointments")
	}
	if !v.confirm.Confirm("Delete this appointment? This cannot be undone.") {
		return nil
	}
	if err := v.api.DeleteAppointment(ctx, id); err != nil {
		v.setActionError(err)
		return err
	}
	return v.Refresh(ctx)
}

func (v *View) setActionError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errMsg = vetapi.Message(err)
	v.logger.Warn("appointment action failed", "error", err)
}
