// Package vetapi is the authenticated REST client for the clinic backend.
// It owns the wire formats, the error taxonomy and the single extraction
// routine that turns any failure into a user-facing message.
package vetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vetcare/portal/internal/clinic"
	"github.com/vetcare/portal/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the current bearer token, or "" when signed out.
type TokenSource func() string

// Config holds the client construction parameters.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	TokenSource TokenSource
	Logger      *logging.Logger
	Retry       RetryPolicy
}

// Client issues authenticated requests against the clinic REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *logging.Logger
	retry      RetryPolicy
}

// New constructs a Client. BaseURL is required; everything else has defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("vetapi: BaseURL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	token := cfg.TokenSource
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
		logger:     logger,
		retry:      cfg.Retry.normalize(),
	}, nil
}

// ListAppointments fetches one page or one date range of appointments.
func (c *Client) ListAppointments(ctx context.Context, params ListAppointmentsParams) (*AppointmentPage, error) {
	var page AppointmentPage
	if err := c.doJSON(ctx, http.MethodGet, "/appointments/", params.query(), nil, &page); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return &page, nil
}

// GetAppointment fetches a single appointment by id.
func (c *Client) GetAppointment(ctx context.Context, id int) (*clinic.Appointment, error) {
	var apt clinic.Appointment
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/appointments/%d", id), nil, nil, &apt); err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return &apt, nil
}

// CreateAppointment books a new appointment.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*clinic.Appointment, error) {
	var apt clinic.Appointment
	if err := c.doJSON(ctx, http.MethodPost, "/appointments/", nil, req, &apt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &apt, nil
}

// AvailableSlots returns open start times for a doctor on a date. Entries the
// backend sends in an unparseable form are skipped.
func (c *Client) AvailableSlots(ctx context.Context, doctorID int, date string) ([]time.Time, error) {
	q := url.Values{}
	q.Set("doctor_id", fmt.Sprintf("%d", doctorID))
	q.Set("date", date)

	var raw []string
	if err := c.doJSON(ctx, http.MethodGet, "/appointments/slots", q, nil, &raw); err != nil {
		return nil, fmt.Errorf("available slots: %w", err)
	}

	slots := make([]time.Time, 0, len(raw))
	for _, iso := range raw {
		ts, err := time.Parse(time.RFC3339, iso)
		if err != nil {
			c.logger.Warn("skipping unparseable slot", "value", iso)
			continue
		}
		slots = append(slots, ts)
	}
	return slots, nil
}

// CancelAppointment marks a planned appointment cancelled.
func (c *Client) CancelAppointment(ctx context.Context, id int) (*clinic.Appointment, error) {
	var apt clinic.Appointment
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d/cancel", id), nil, nil, &apt); err != nil {
		return nil, fmt.Errorf("cancel appointment %d: %w", id, err)
	}
	return &apt, nil
}

// CompleteAppointment marks a planned appointment completed.
func (c *Client) CompleteAppointment(ctx context.Context, id int) (*clinic.Appointment, error) {
	var apt clinic.Appointment
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d/complete", id), nil, nil, &apt); err != nil {
		return nil, fmt.Errorf("complete appointment %d: %w", id, err)
	}
	return &apt, nil
}

// DeleteAppointment removes an appointment entirely. Admin only.
func (c *Client) DeleteAppointment(ctx context.Context, id int) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/appointments/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete appointment %d: %w", id, err)
	}
	return nil
}

// ListDoctors returns every doctor.
func (c *Client) ListDoctors(ctx context.Context) ([]clinic.Doctor, error) {
	var doctors []clinic.Doctor
	if err := c.doJSON(ctx, http.MethodGet, "/doctors/", nil, nil, &doctors); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// CreateDoctor registers a doctor account. Admin only.
func (c *Client) CreateDoctor(ctx context.Context, req DoctorPayload) (*clinic.Doctor, error) {
	var doctor clinic.Doctor
	if err := c.doJSON(ctx, http.MethodPost, "/doctors/", nil, req, &doctor); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return &doctor, nil
}

// UpdateDoctor edits a doctor profile. Admin only.
func (c *Client) UpdateDoctor(ctx context.Context, id int, req DoctorPayload) (*clinic.Doctor, error) {
	var doctor clinic.Doctor
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/doctors/%d", id), nil, req, &doctor); err != nil {
		return nil, fmt.Errorf("update doctor %d: %w", id, err)
	}
	return &doctor, nil
}

// DeleteDoctor removes a doctor. Admin only.
func (c *Client) DeleteDoctor(ctx context.Context, id int) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/doctors/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete doctor %d: %w", id, err)
	}
	return nil
}

// ListPets fetches the caller's pets. The backend returns either a plain
// array or an {items,total} envelope; both normalize to a slice here.
func (c *Client) ListPets(ctx context.Context, page, limit int) ([]clinic.Pet, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}

	var pets petListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/pets/", q, nil, &pets); err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return pets.Items, nil
}

// CreatePet registers a new pet for the current client.
func (c *Client) CreatePet(ctx context.Context, req PetPayload) (*clinic.Pet, error) {
	var pet clinic.Pet
	if err := c.doJSON(ctx, http.MethodPost, "/pets/", nil, req, &pet); err != nil {
		return nil, fmt.Errorf("create pet: %w", err)
	}
	return &pet, nil
}

// UpdatePet edits an existing pet.
func (c *Client) UpdatePet(ctx context.Context, id int, req PetPayload) (*clinic.Pet, error) {
	var pet clinic.Pet
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/pets/%d", id), nil, req, &pet); err != nil {
		return nil, fmt.Errorf("update pet %d: %w", id, err)
	}
	return &pet, nil
}

// DeletePet removes a pet.
func (c *Client) DeletePet(ctx context.Context, id int) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/pets/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete pet %d: %w", id, err)
	}
	return nil
}

// ListClients returns all client records. Admin only.
func (c *Client) ListClients(ctx context.Context) ([]clinic.Client, error) {
	var clients []clinic.Client
	if err := c.doJSON(ctx, http.MethodGet, "/clients/", nil, nil, &clients); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// UpdateClient edits a client record. Admin only.
func (c *Client) UpdateClient(ctx context.Context, id int, req ClientPayload) (*clinic.Client, error) {
	var client clinic.Client
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/clients/%d", id), nil, req, &client); err != nil {
		return nil, fmt.Errorf("update client %d: %w", id, err)
	}
	return &client, nil
}

// Login exchanges credentials for a bearer token. The backend expects
// form-encoded username/password, not JSON.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("login: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("login: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("login: %w", decodeAPIError(resp.StatusCode, body))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("login: decode response: %w", err)
	}
	return &token, nil
}

// Register creates a new client account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*clinic.User, error) {
	var user clinic.User
	if err := c.doJSON(ctx, http.MethodPost, "/users/", nil, req, &user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (*clinic.User, error) {
	var user clinic.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = c.retry.MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := c.retry.wait(ctx, attempt-1); err != nil {
				return err
			}
		}

		done, err := c.doOnce(ctx, method, endpoint, path, payload, out)
		if done {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// doOnce performs a single request. done=false means the failure is
// retryable (transport error or 5xx) and the policy may try again.
func (c *Client) doOnce(ctx context.Context, method, endpoint, path string, payload []byte, out any) (done bool, err error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return true, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug("api request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp.StatusCode, respBody)
		c.logger.Warn("api non-2xx response",
			"method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
		return resp.StatusCode < 500, apiErr
	}

	if out == nil || len(respBody) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return true, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
