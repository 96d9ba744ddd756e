package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/servicehub/internal/database"
)

// CreateReviewRequest represents a review request
type CreateReviewRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// CreateReview stores a 1-5 star review of a booking.
func (h *BookingsHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var req CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	review := &database.Review{
		ID:        newID(),
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: nowUTC(),
	}
	if err := h.bookings.CreateReview(r.Context(), review); err != nil {
		log.Printf("CreateReview: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"review": review})
}
