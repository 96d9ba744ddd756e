package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

// MatchResponse is the closest enrolled identity within the threshold, or null.
type MatchResponse struct {
	Match *facematch.MatchResult `json:"match"`
}

// Match finds the enrolled identity closest to a given embedding.
func (h *FacesHandler) Match(w http.ResponseWriter, r *http.Request) {
	if h.enrollments == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var req faceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Embedding == nil {
		respondError(w, http.StatusBadRequest, "embedding required")
		return
	}

	kind := h.encoder(r.Context()).Kind()
	threshold, err := h.thresholdFor(&req, kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	enrollments, err := h.enrollments.ListEnrollments(r.Context())
	if err != nil {
		log.Printf("Match: failed to load enrollments: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load enrollments")
		return
	}

	result := facematch.Match(facematch.Embedding(req.Embedding), database.EnrollmentRecords(enrollments, kind), threshold)
	respondJSON(w, http.StatusOK, MatchResponse{Match: result})
}

// SimilarResult is one neighbour of the query embedding.
type SimilarResult struct {
	EnrollmentID int64   `json:"enrollment_id"`
	UserID       string  `json:"user_id"`
	Distance     float64 `json:"distance"`
}

// SimilarResponse lists the nearest enrollments, closest first.
type SimilarResponse struct {
	Results []SimilarResult `json:"results"`
	Count   int             `json:"count"`
}

// Similar lists the k enrollments nearest to an embedding or image, without a threshold.
func (h *FacesHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.enrollments == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	req, err := parseFaceRequest(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	query := facematch.Embedding(req.Embedding)
	if query == nil {
		query, _, err = h.extract(r.Context(), req)
		if err != nil {
			respondExtractError(w, err)
			return
		}
	}

	if len(query) != h.config.Face.Dim {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("embedding must have %d dimensions, got %d", h.config.Face.Dim, len(query)))
		return
	}

	k := req.K
	if k <= 0 {
		k = constants.DefaultSimilarLimit
	}
	if k > constants.MaxSimilarLimit {
		k = constants.MaxSimilarLimit
	}

	neighbours, distances, err := h.enrollments.FindSimilar(r.Context(), query, k)
	if err != nil {
		log.Printf("Similar: search failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to search enrollments")
		return
	}

	results := make([]SimilarResult, len(neighbours))
	for i, n := range neighbours {
		results[i] = SimilarResult{EnrollmentID: n.ID, UserID: n.Identity, Distance: distances[i]}
	}
	respondJSON(w, http.StatusOK, SimilarResponse{Results: results, Count: len(results)})
}
