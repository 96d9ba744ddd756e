package handlers

import (
	"net/http"
	"os"
)

// AssetsHandler serves static assets configured on disk.
type AssetsHandler struct {
	splashPath string
}

// NewAssetsHandler creates a new assets handler
func NewAssetsHandler(splashPath string) *AssetsHandler {
	return &AssetsHandler{splashPath: splashPath}
}

// Splash serves the configured splash image.
func (h *AssetsHandler) Splash(w http.ResponseWriter, r *http.Request) {
	if h.splashPath == "" {
		respondError(w, http.StatusNotFound, "asset not found")
		return
	}
	info, err := os.Stat(h.splashPath)
	if err != nil || info.IsDir() {
		respondError(w, http.StatusNotFound, "asset not found")
		return
	}
	http.ServeFile(w, r, h.splashPath)
}
