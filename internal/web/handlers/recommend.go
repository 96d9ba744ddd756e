package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/kozaktomas/servicehub/internal/ai"
	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/recommend"
)

// RecommendHandler handles service recommendations
type RecommendHandler struct {
	recommender *recommend.Recommender
}

// NewRecommendHandler creates a new recommend handler. classifier may be nil.
func NewRecommendHandler(cfg *config.Config, classifier ai.Classifier) *RecommendHandler {
	h := &RecommendHandler{}
	if catalog, err := database.GetCatalogReader(context.Background()); err == nil {
		h.recommender = recommend.New(cfg.Recommend, catalog, classifier)
	}
	return h
}

// RecommendRequest represents a recommendation request
type RecommendRequest struct {
	Text string `json:"text"`
}

// Recommend suggests categories and providers for a free-text request.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if h.recommender == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var req RecommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rec, err := h.recommender.Recommend(r.Context(), req.Text)
	if err != nil {
		log.Printf("Recommend: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to build recommendation")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}
