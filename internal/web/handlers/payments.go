package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/database"
)

// paymentURLBase is where the demo payment page lives.
const paymentURLBase = "https://demo-payment.example.com/pay/"

// CreatePaymentRequest represents a payment intent request
type CreatePaymentRequest struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// CreatePayment creates a stub payment intent and records it as a transaction.
func (h *BookingsHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var req CreatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Currency == "" {
		req.Currency = constants.DefaultCurrency
	}

	payment := &database.Transaction{
		ID:         newID(),
		BookingID:  req.BookingID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Status:     constants.PaymentStatusCreated,
		PaymentURL: paymentURLBase + newID(),
		CreatedAt:  nowUTC(),
	}
	if err := h.bookings.CreateTransaction(r.Context(), payment); err != nil {
		log.Printf("CreatePayment: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create payment")
		return
	}

	respondJSON(w, http.StatusOK, payment)
}
