package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/database"
)

// AttendanceHandler handles attendance records
type AttendanceHandler struct {
	attendance database.AttendanceWriter
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler() *AttendanceHandler {
	h := &AttendanceHandler{}
	if attendance, err := database.GetAttendanceWriter(context.Background()); err == nil {
		h.attendance = attendance
	}
	return h
}

// MarkAttendanceRequest represents an attendance request
type MarkAttendanceRequest struct {
	UserID    string `json:"user_id"`
	BookingID string `json:"booking_id"`
	Method    string `json:"method"`
}

// Mark records that a user attended a booking. The method defaults to "face".
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	if h.attendance == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var req MarkAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Method == "" {
		req.Method = constants.DefaultAttendanceMethod
	}

	record := &database.Attendance{
		ID:        newID(),
		UserID:    req.UserID,
		BookingID: req.BookingID,
		Method:    req.Method,
		Timestamp: nowUTC(),
	}
	if err := h.attendance.MarkAttendance(r.Context(), record); err != nil {
		log.Printf("MarkAttendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to mark attendance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "record": record})
}

// List returns a user's attendance records, newest first.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.attendance == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	userID := chi.URLParam(r, "user_id")
	records, err := h.attendance.ListAttendance(r.Context(), userID)
	if err != nil {
		log.Printf("ListAttendance %s: %v", sanitizeForLog(userID), err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	if records == nil {
		records = []database.Attendance{}
	}

	respondJSON(w, http.StatusOK, records)
}
