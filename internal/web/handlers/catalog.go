package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/servicehub/internal/database"
)

// CatalogHandler handles service and provider listings
type CatalogHandler struct {
	catalog database.CatalogReader
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler() *CatalogHandler {
	h := &CatalogHandler{}
	if catalog, err := database.GetCatalogReader(context.Background()); err == nil {
		h.catalog = catalog
	}
	return h
}

// ListServices returns services filtered by q (title/description substring), category and provider_id.
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	query := r.URL.Query()
	filter := database.ServiceFilter{
		Query:      query.Get("q"),
		Category:   query.Get("category"),
		ProviderID: query.Get("provider_id"),
	}

	services, err := h.catalog.ListServices(r.Context(), filter)
	if err != nil {
		log.Printf("ListServices: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	if services == nil {
		services = []database.Service{}
	}

	respondJSON(w, http.StatusOK, services)
}

// ListProviders returns providers filtered by category and verified (1, true or yes mean verified).
func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	query := r.URL.Query()
	filter := database.ProviderFilter{Category: query.Get("category")}
	if query.Has("verified") {
		verified := parseVerified(query.Get("verified"))
		filter.Verified = &verified
	}

	providers, err := h.catalog.ListProviders(r.Context(), filter)
	if err != nil {
		log.Printf("ListProviders: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	if providers == nil {
		providers = []database.Provider{}
	}

	respondJSON(w, http.StatusOK, providers)
}

func parseVerified(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
