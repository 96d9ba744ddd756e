package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

// EnrollResponse is the stored enrollment.
type EnrollResponse struct {
	Success    bool                       `json:"success"`
	Enrollment *database.StoredEnrollment `json:"enrollment"`
}

// Enroll stores an embedding for an identity. The embedding is given directly or
// extracted from an image ("file" part or image_base64).
func (h *FacesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if h.enrollments == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	req, err := parseFaceRequest(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id required")
		return
	}

	emb := facematch.Embedding(req.Embedding)
	kind := h.encoder(r.Context()).Kind()
	if emb == nil {
		if !req.hasImage() {
			respondError(w, http.StatusBadRequest, "image or embedding required")
			return
		}
		emb, kind, err = h.extract(r.Context(), req)
		if err != nil {
			if !errors.Is(err, facematch.ErrNoFaceFound) && !errors.Is(err, facematch.ErrInvalidImage) {
				log.Printf("Enroll: extraction failed for %s: %v", sanitizeForLog(req.UserID), err)
			}
			respondExtractError(w, err)
			return
		}
	}
	if len(emb) != h.config.Face.Dim {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("embedding must have %d dimensions, got %d", h.config.Face.Dim, len(emb)))
		return
	}

	enrollment := &database.StoredEnrollment{
		Identity:  req.UserID,
		Embedding: emb,
		Encoder:   string(kind),
		Meta:      req.Meta,
		CreatedAt: nowUTC(),
	}
	if err := h.enrollments.SaveEnrollment(r.Context(), enrollment); err != nil {
		log.Printf("Enroll: failed to save enrollment for %s: %v", sanitizeForLog(req.UserID), err)
		respondError(w, http.StatusInternalServerError, "failed to save enrollment")
		return
	}

	respondJSON(w, http.StatusCreated, EnrollResponse{Success: true, Enrollment: enrollment})
}

// DeleteEnrollments removes every enrollment of the identity in the URL.
func (h *FacesHandler) DeleteEnrollments(w http.ResponseWriter, r *http.Request) {
	if h.enrollments == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id required")
		return
	}

	deleted, err := h.enrollments.DeleteEnrollments(r.Context(), userID)
	if err != nil {
		log.Printf("DeleteEnrollments: failed for %s: %v", sanitizeForLog(userID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete enrollments")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// FaceStatusResponse describes the active encoder and the enrollment store.
type FaceStatusResponse struct {
	Encoder          facematch.EncoderKind `json:"encoder"`
	DefaultThreshold float64               `json:"default_threshold"`
	Dimension        int                   `json:"dimension"`
	Enrollments      int                   `json:"enrollments"`
	IndexEnabled     bool                  `json:"index_enabled"`
	IndexCount       int                   `json:"index_count"`
}

// Status reports the active encoder, its default threshold and enrollment counts.
func (h *FacesHandler) Status(w http.ResponseWriter, r *http.Request) {
	kind := h.encoder(r.Context()).Kind()
	resp := FaceStatusResponse{
		Encoder:          kind,
		DefaultThreshold: h.config.Face.ThresholdFor(kind),
		Dimension:        h.config.Face.Dim,
	}

	if h.enrollments != nil {
		count, err := h.enrollments.Count(r.Context())
		if err != nil {
			log.Printf("Status: failed to count enrollments: %v", err)
		}
		resp.Enrollments = count
	}
	if h.index != nil {
		resp.IndexEnabled = h.index.IsIndexEnabled()
		resp.IndexCount = h.index.IndexCount()
	}

	respondJSON(w, http.StatusOK, resp)
}

// RebuildIndex reloads the similarity index from storage and saves it to disk.
func (h *FacesHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	if h.index == nil || !h.index.IsIndexEnabled() {
		respondError(w, http.StatusServiceUnavailable, "similarity index not enabled")
		return
	}

	if err := h.index.RebuildIndex(r.Context()); err != nil {
		log.Printf("RebuildIndex: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to rebuild index")
		return
	}
	if err := h.index.SaveIndex(); err != nil {
		log.Printf("RebuildIndex: failed to save index: %v", err)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"index_count": h.index.IndexCount(),
	})
}
