package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

// DetectResponse carries the embedding of the first detected face, or null.
type DetectResponse struct {
	Embedding facematch.Embedding   `json:"embedding"`
	Encoder   facematch.EncoderKind `json:"encoder"`
}

// Detect computes the embedding of an uploaded image ("file" part or JSON image_base64).
// An image without a face yields a null embedding.
func (h *FacesHandler) Detect(w http.ResponseWriter, r *http.Request) {
	req, err := parseFaceRequest(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	emb, kind, err := h.extract(r.Context(), req)
	if errors.Is(err, facematch.ErrNoFaceFound) {
		respondJSON(w, http.StatusOK, DetectResponse{Embedding: nil, Encoder: kind})
		return
	}
	if err != nil {
		if !errors.Is(err, errNoImage) {
			log.Printf("Detect: extraction failed: %v", err)
		}
		respondExtractError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, DetectResponse{Embedding: emb, Encoder: kind})
}

// VerifyResponse is the identity matched for an image.
type VerifyResponse struct {
	Match     *facematch.MatchResult `json:"match"`
	Encoder   facematch.EncoderKind  `json:"encoder"`
	Threshold float64                `json:"threshold"`
}

// Verify extracts the embedding of an image and matches it against every enrollment.
func (h *FacesHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.enrollments == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	req, err := parseFaceRequest(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	emb, kind, err := h.extract(r.Context(), req)
	if err != nil {
		if !errors.Is(err, errNoImage) && !errors.Is(err, facematch.ErrNoFaceFound) {
			log.Printf("Verify: extraction failed: %v", err)
		}
		respondExtractError(w, err)
		return
	}

	threshold, err := h.thresholdFor(req, kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	enrollments, err := h.enrollments.ListEnrollments(r.Context())
	if err != nil {
		log.Printf("Verify: failed to load enrollments: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load enrollments")
		return
	}

	respondJSON(w, http.StatusOK, VerifyResponse{
		Match:     facematch.Match(emb, database.EnrollmentRecords(enrollments, kind), threshold),
		Encoder:   kind,
		Threshold: threshold,
	})
}
