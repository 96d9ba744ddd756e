package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/database"
)

// BookingsHandler handles bookings and the payments and reviews attached to them.
// Handler methods are organized in separate files:
//   - bookings.go: Create, Get, Track
//   - payments.go: CreatePayment
//   - reviews.go: CreateReview
type BookingsHandler struct {
	bookings database.BookingWriter
	catalog  database.CatalogReader
}

// NewBookingsHandler creates a new bookings handler
func NewBookingsHandler() *BookingsHandler {
	h := &BookingsHandler{}
	if bookings, err := database.GetBookingWriter(context.Background()); err == nil {
		h.bookings = bookings
	}
	if catalog, err := database.GetCatalogReader(context.Background()); err == nil {
		h.catalog = catalog
	}
	return h
}

// requiredBookingFields must all be present in a booking request.
var requiredBookingFields = []string{"user_id", "provider_id", "service_id", "datetime", "address"}

// bookingTimeLayouts are accepted for the booking datetime; layouts without a zone are UTC.
var bookingTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

var errInvalidDatetime = errors.New("invalid datetime format")

// parseBookingTime parses an ISO 8601 booking time. A trailing Z is accepted.
func parseBookingTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range bookingTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDatetime
}

// CreateBookingRequest represents a booking request
type CreateBookingRequest struct {
	UserID     string `json:"user_id"`
	ProviderID string `json:"provider_id"`
	ServiceID  string `json:"service_id"`
	Datetime   string `json:"datetime"`
	Address    string `json:"address"`
	Notes      string `json:"notes"`
}

// Create books a service. Pricing and labels are copied from the service.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil || h.catalog == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	for _, field := range requiredBookingFields {
		if _, ok := raw[field]; !ok {
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":    "missing fields",
				"required": requiredBookingFields,
			})
			return
		}
	}

	var req CreateBookingRequest
	if err := remarshal(raw, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	scheduledAt, err := parseBookingTime(req.Datetime)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidDatetime.Error())
		return
	}
	now := nowUTC()
	if !scheduledAt.After(now) {
		respondError(w, http.StatusBadRequest, "booking datetime must be in the future")
		return
	}

	service, err := h.catalog.GetService(r.Context(), req.ServiceID)
	if err != nil {
		log.Printf("CreateBooking: failed to load service %s: %v", sanitizeForLog(req.ServiceID), err)
		respondError(w, http.StatusInternalServerError, "failed to load service")
		return
	}
	if service == nil {
		respondError(w, http.StatusNotFound, "service not found")
		return
	}

	booking := &database.Booking{
		ID:              newID(),
		UserID:          req.UserID,
		ProviderID:      req.ProviderID,
		ServiceID:       req.ServiceID,
		ScheduledAt:     scheduledAt,
		Address:         req.Address,
		Notes:           req.Notes,
		Status:          constants.BookingStatusPending,
		PaymentStatus:   constants.PaymentStatusUnpaid,
		Amount:          constants.DefaultBookingAmount,
		Currency:        constants.DefaultCurrency,
		ServiceTitle:    constants.DefaultServiceTitle,
		ServiceCategory: constants.DefaultServiceCategory,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if service.Price != nil {
		booking.Amount = *service.Price
	}
	if service.Currency != "" {
		booking.Currency = service.Currency
	}
	if service.Title != "" {
		booking.ServiceTitle = service.Title
	}
	if service.Category != "" {
		booking.ServiceCategory = service.Category
	}

	if err := h.bookings.CreateBooking(r.Context(), booking); err != nil {
		log.Printf("CreateBooking: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"booking": booking,
	})
}

// remarshal decodes the already parsed fields into dst.
func remarshal(raw map[string]json.RawMessage, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Get returns a booking by ID.
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	booking, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		log.Printf("GetBooking %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	if booking == nil {
		respondError(w, http.StatusNotFound, "booking not found")
		return
	}

	respondJSON(w, http.StatusOK, booking)
}

// TrackingResponse is the live tracking payload of a booking.
type TrackingResponse struct {
	BookingID        string           `json:"booking_id"`
	Status           string           `json:"status"`
	ProviderLocation ProviderLocation `json:"provider_location"`
	EstimatedArrival string           `json:"estimated_arrival"`
	ProviderName     string           `json:"provider_name"`
	ProviderPhone    string           `json:"provider_phone"`
}

type ProviderLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Track returns tracking data for a booking. There is no live provider feed,
// so the location and arrival estimate are fixed placeholders.
func (h *BookingsHandler) Track(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, TrackingResponse{
		BookingID:        chi.URLParam(r, "id"),
		Status:           "confirmed",
		ProviderLocation: ProviderLocation{Lat: 28.6139, Lng: 77.2090},
		EstimatedArrival: "30 minutes",
		ProviderName:     "Service Provider",
		ProviderPhone:    "+91-9876543210",
	})
}
