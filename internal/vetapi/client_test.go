package vetapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetcare/portal/internal/clinic"
	"github.com/vetcare/portal/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client, err := New(Config{
		BaseURL:     ts.URL,
		TokenSource: func() string { return "test-token" },
		Logger:      logging.Default(),
	})
	require.NoError(t, err)
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestListAppointmentsByPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/appointments/", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("start_date"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":7,"date_time":"2025-06-01T10:00:00Z","status":"planned","doctor":{"id":1,"full_name":"Dr. Reed"},"pet":{"id":2,"name":"Biscuit","species":"DOG"}}],"total":23}`))
	})

	page, err := client.ListAppointments(context.Background(), ListAppointmentsParams{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 23, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 7, page.Items[0].ID)
	assert.Equal(t, "Biscuit", page.Items[0].Pet.Name)
}

func TestListAppointmentsByRange(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, start.Format(time.RFC3339), r.URL.Query().Get("start_date"))
		assert.Equal(t, end.Format(time.RFC3339), r.URL.Query().Get("end_date"))
		assert.Empty(t, r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"items":[],"total":0}`))
	})

	page, err := client.ListAppointments(context.Background(), ListAppointmentsParams{StartDate: start, EndDate: end})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestAvailableSlotsSkipsUnparseable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appointments/slots", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("doctor_id"))
		assert.Equal(t, "2025-06-01", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`["2025-06-01T10:00:00Z","not-a-timestamp","2025-06-01T10:45:00Z"]`))
	})

	slots, err := client.AvailableSlots(context.Background(), 3, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), slots[0])
	assert.Equal(t, time.Date(2025, 6, 1, 10, 45, 0, 0, time.UTC), slots[1])
}

func TestCreateAppointment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/appointments/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"date_time":"2025-06-01T10:00:00Z","status":"planned","reason":"checkup","doctor":{"id":1,"full_name":"Dr. Reed"},"pet":{"id":2,"name":"Biscuit","species":"DOG"}}`))
	})

	apt, err := client.CreateAppointment(context.Background(), CreateAppointmentRequest{
		DoctorID: 1,
		PetID:    2,
		DateTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Reason:   "checkup",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, apt.ID)
	assert.Equal(t, "checkup", apt.Reason)
}

func TestDeleteAppointmentNoContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/appointments/42", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteAppointment(context.Background(), 42))
}

func TestListPetsPlainArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"Biscuit","species":"DOG"}]`))
	})

	pets, err := client.ListPets(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "Biscuit", pets[0].Name)
}

func TestListPetsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":[{"id":1,"name":"Biscuit","species":"DOG"},{"id":2,"name":"Mango","species":"BIRD"}],"total":2}`))
	})

	pets, err := client.ListPets(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, pets, 2)
	assert.Equal(t, "Mango", pets[1].Name)
}

func TestLoginSendsForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "sam@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer"}`))
	})

	token, err := client.Login(context.Background(), "sam@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
}

func TestLoginBadCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
	})

	_, err := client.Login(context.Background(), "sam@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", Message(err))
}

func TestMe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":5,"email":"sam@example.com","full_name":"Sam Park","role":"client"}`))
	})

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, user.ID)
	assert.Equal(t, clinic.RoleClient, user.Role)
}

func TestGetRetriesOn5xx(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(ts.Close)

	client, err := New(Config{
		BaseURL: ts.URL,
		Retry:   RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	})
	require.NoError(t, err)

	_, err = client.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPostIsNeverRetried(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	client, err := New(Config{
		BaseURL: ts.URL,
		Retry:   RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond},
	})
	require.NoError(t, err)

	_, err = client.CreateAppointment(context.Background(), CreateAppointmentRequest{DoctorID: 1, PetID: 2})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Appointment not found"}`))
	}))
	t.Cleanup(ts.Close)

	client, err := New(Config{
		BaseURL: ts.URL,
		Retry:   RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond},
	})
	require.NoError(t, err)

	_, err = client.GetAppointment(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListDoctors(ctx)
	require.Error(t, err)
}

func TestCreateDoctor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/doctors/", r.URL.Path)
		var req DoctorPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Dr. Reed", req.FullName)
		assert.Equal(t, "SURGEON", req.Specialization)
		assert.Equal(t, "s3cret", req.Password)
		_, _ = w.Write([]byte(`{"id":4,"full_name":"Dr. Reed","specialization":"SURGEON"}`))
	})

	doctor, err := client.CreateDoctor(context.Background(), DoctorPayload{
		Email:          "reed@clinic.test",
		Password:       "s3cret",
		FullName:       "Dr. Reed",
		Specialization: "SURGEON",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, doctor.ID)
}

func TestUpdateDoctor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/doctors/4", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":4,"full_name":"Dr. A. Reed","specialization":"SURGEON"}`))
	})

	doctor, err := client.UpdateDoctor(context.Background(), 4, DoctorPayload{FullName: "Dr. A. Reed", Specialization: "SURGEON"})
	require.NoError(t, err)
	assert.Equal(t, "Dr. A. Reed", doctor.FullName)
}

func TestDeleteDoctor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/doctors/4", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, client.DeleteDoctor(context.Background(), 4))
}

func TestDeletePet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/pets/2", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, client.DeletePet(context.Background(), 2))
}

func TestListClients(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/clients/", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":9,"user_id":12,"full_name":"Jane Smith","phone_number":"555-0101"}]`))
	})

	clients, err := client.ListClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Jane Smith", clients[0].FullName)
}

func TestUpdateClient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/clients/9", r.URL.Path)
		var req ClientPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "555-0102", req.PhoneNumber)
		_, _ = w.Write([]byte(`{"id":9,"user_id":12,"full_name":"Jane Smith","phone_number":"555-0102"}`))
	})

	updated, err := client.UpdateClient(context.Background(), 9, ClientPayload{FullName: "Jane Smith", PhoneNumber: "555-0102"})
	require.NoError(t, err)
	assert.Equal(t, "555-0102", updated.PhoneNumber)
}

func TestRegister(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/", r.URL.Path)
		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "jane@example.test", req.Email)
		_, _ = w.Write([]byte(`{"id":12,"email":"jane@example.test","full_name":"Jane Smith","role":"client"}`))
	})

	user, err := client.Register(context.Background(), RegisterRequest{
		Email:    "jane@example.test",
		Password: "s3cret",
		FullName: "Jane Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, clinic.RoleClient, user.Role)
}
