package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/database/mock"
)

var bookingNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestBookingsHandler(t *testing.T) (*BookingsHandler, *mock.MockBookings) {
	t.Helper()
	fixedNow(t, bookingNow)
	bookings := mock.NewMockBookings()
	return &BookingsHandler{bookings: bookings, catalog: testCatalog()}, bookings
}

func validBooking() map[string]any {
	return map[string]any{
		"user_id":     "u1",
		"provider_id": "p1",
		"service_id":  "s1",
		"datetime":    "2030-06-02T09:30:00Z",
		"address":     "12 MG Road",
		"notes":       "ring twice",
	}
}

func TestParseBookingTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2030-06-02T09:30:00Z", time.Date(2030, 6, 2, 9, 30, 0, 0, time.UTC), false},
		{"2030-06-02T15:00:00+05:30", time.Date(2030, 6, 2, 9, 30, 0, 0, time.UTC), false},
		{"2030-06-02T09:30:00", time.Date(2030, 6, 2, 9, 30, 0, 0, time.UTC), false},
		{"2030-06-02T09:30", time.Date(2030, 6, 2, 9, 30, 0, 0, time.UTC), false},
		{"2030-06-02 09:30:00", time.Date(2030, 6, 2, 9, 30, 0, 0, time.UTC), false},
		{"tomorrow", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseBookingTime(tc.in)
			if tc.wantErr {
				if !errors.Is(err, errInvalidDatetime) {
					t.Fatalf("expected errInvalidDatetime, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBookingsHandler_Create(t *testing.T) {
	handler, bookings := newTestBookingsHandler(t)

	recorder := httptest.NewRecorder()
	handler.Create(recorder, jsonRequest(t, http.MethodPost, "/api/bookings", validBooking()))

	assertStatusCode(t, recorder, http.StatusCreated)

	var result struct {
		Success bool             `json:"success"`
		Booking database.Booking `json:"booking"`
	}
	parseJSONResponse(t, recorder, &result)
	if !result.Success {
		t.Error("expected success true")
	}
	b := result.Booking
	if b.Status != "pending" || b.PaymentStatus != "unpaid" {
		t.Errorf("unexpected status %s/%s", b.Status, b.PaymentStatus)
	}
	if b.Amount != 499 || b.Currency != "INR" {
		t.Errorf("expected price copied from service, got %v %s", b.Amount, b.Currency)
	}
	if b.ServiceTitle != "Leak repair" || b.ServiceCategory != "Plumber" {
		t.Errorf("expected labels copied from service, got %s/%s", b.ServiceTitle, b.ServiceCategory)
	}
	if !b.CreatedAt.Equal(bookingNow) {
		t.Errorf("expected created_at %v, got %v", bookingNow, b.CreatedAt)
	}
	if bookings.BookingCount() != 1 {
		t.Errorf("expected 1 stored booking, got %d", bookings.BookingCount())
	}
}

func TestBookingsHandler_Create_ServiceDefaults(t *testing.T) {
	handler, _ := newTestBookingsHandler(t)
	catalog := mock.NewMockCatalog()
	catalog.AddService(database.Service{ID: "bare", ProviderID: "p1"})
	handler.catalog = catalog

	body := validBooking()
	body["service_id"] = "bare"
	recorder := httptest.NewRecorder()
	handler.Create(recorder, jsonRequest(t, http.MethodPost, "/api/bookings", body))

	assertStatusCode(t, recorder, http.StatusCreated)
	var result struct {
		Booking database.Booking `json:"booking"`
	}
	parseJSONResponse(t, recorder, &result)
	b := result.Booking
	if b.Amount != 999 || b.Currency != "INR" || b.ServiceTitle != "Unknown Service" || b.ServiceCategory != "General" {
		t.Errorf("expected defaults, got %v %s %s %s", b.Amount, b.Currency, b.ServiceTitle, b.ServiceCategory)
	}
}

func TestBookingsHandler_Create_MissingFields(t *testing.T) {
	handler, bookings := newTestBookingsHandler(t)

	for _, field := range requiredBookingFields {
		t.Run(field, func(t *testing.T) {
			body := validBooking()
			delete(body, field)

			recorder := httptest.NewRecorder()
			handler.Create(recorder, jsonRequest(t, http.MethodPost, "/api/bookings", body))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			var result struct {
				Error    string   `json:"error"`
				Required []string `json:"required"`
			}
			parseJSONResponse(t, recorder, &result)
			if result.Error != "missing fields" {
				t.Errorf("expected 'missing fields', got %q", result.Error)
			}
			if len(result.Required) != len(requiredBookingFields) {
				t.Errorf("expected required list, got %v", result.Required)
			}
		})
	}
	if bookings.BookingCount() != 0 {
		t.Errorf("expected no stored bookings, got %d", bookings.BookingCount())
	}
}

func TestBookingsHandler_Create_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]any)
		status   int
		errorMsg string
	}{
		{"bad datetime", func(b map[string]any) { b["datetime"] = "soon" }, http.StatusBadRequest, "invalid datetime format"},
		{"past datetime", func(b map[string]any) { b["datetime"] = "2030-05-31T12:00:00Z" }, http.StatusBadRequest, "booking datetime must be in the future"},
		{"now is not future", func(b map[string]any) { b["datetime"] = "2030-06-01T12:00:00Z" }, http.StatusBadRequest, "booking datetime must be in the future"},
		{"unknown service", func(b map[string]any) { b["service_id"] = "nope" }, http.StatusNotFound, "service not found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newTestBookingsHandler(t)
			body := validBooking()
			tc.mutate(body)

			recorder := httptest.NewRecorder()
			handler.Create(recorder, jsonRequest(t, http.MethodPost, "/api/bookings", body))

			assertStatusCode(t, recorder, tc.status)
			assertJSONError(t, recorder, tc.errorMsg)
		})
	}
}

func TestBookingsHandler_Get(t *testing.T) {
	handler, bookings := newTestBookingsHandler(t)
	bookings.CreateBooking(t.Context(), &database.Booking{ID: "b1", UserID: "u1", Status: "pending"})

	recorder := httptest.NewRecorder()
	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/bookings/b1", nil), map[string]string{"id": "b1"})
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var booking database.Booking
	parseJSONResponse(t, recorder, &booking)
	if booking.ID != "b1" {
		t.Errorf("expected b1, got %s", booking.ID)
	}

	recorder = httptest.NewRecorder()
	req = requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/bookings/b2", nil), map[string]string{"id": "b2"})
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "booking not found")
}

func TestBookingsHandler_Track(t *testing.T) {
	handler := &BookingsHandler{}

	recorder := httptest.NewRecorder()
	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/bookings/b9/track", nil), map[string]string{"id": "b9"})
	handler.Track(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result TrackingResponse
	parseJSONResponse(t, recorder, &result)
	if result.BookingID != "b9" || result.Status != "confirmed" {
		t.Errorf("unexpected tracking payload %+v", result)
	}
	if result.ProviderLocation.Lat != 28.6139 || result.ProviderLocation.Lng != 77.2090 {
		t.Errorf("unexpected location %+v", result.ProviderLocation)
	}
}

func TestBookingsHandler_CreatePayment(t *testing.T) {
	handler, bookings := newTestBookingsHandler(t)

	recorder := httptest.NewRecorder()
	handler.CreatePayment(recorder, jsonRequest(t, http.MethodPost, "/api/payments/create",
		CreatePaymentRequest{BookingID: "b1", Amount: 499}))

	assertStatusCode(t, recorder, http.StatusOK)
	var tx database.Transaction
	parseJSONResponse(t, recorder, &tx)
	if tx.ID == "" || tx.Status != "created" || tx.Currency != "INR" {
		t.Errorf("unexpected payment %+v", tx)
	}
	if len(tx.PaymentURL) <= len(paymentURLBase) || tx.PaymentURL[:len(paymentURLBase)] != paymentURLBase {
		t.Errorf("unexpected payment URL %s", tx.PaymentURL)
	}
	if got := bookings.Transactions(); len(got) != 1 || got[0].ID != tx.ID {
		t.Errorf("expected stored transaction %s, got %+v", tx.ID, got)
	}
}

func TestBookingsHandler_CreateReview(t *testing.T) {
	handler, bookings := newTestBookingsHandler(t)

	for _, rating := range []int{0, 6, -1} {
		recorder := httptest.NewRecorder()
		handler.CreateReview(recorder, jsonRequest(t, http.MethodPost, "/api/reviews",
			CreateReviewRequest{BookingID: "b1", Rating: rating}))
		assertStatusCode(t, recorder, http.StatusBadRequest)
	}

	recorder := httptest.NewRecorder()
	handler.CreateReview(recorder, jsonRequest(t, http.MethodPost, "/api/reviews",
		CreateReviewRequest{BookingID: "b1", Rating: 5, Comment: "  great  "}))

	assertStatusCode(t, recorder, http.StatusOK)
	var result struct {
		Review database.Review `json:"review"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Review.Rating != 5 || result.Review.Comment != "great" {
		t.Errorf("unexpected review %+v", result.Review)
	}
	if len(bookings.Reviews()) != 1 {
		t.Errorf("expected 1 stored review, got %d", len(bookings.Reviews()))
	}
}
