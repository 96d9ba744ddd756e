package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/kozaktomas/servicehub/internal/constants"
)

// ProxyHandler fetches remote images on behalf of the frontend.
type ProxyHandler struct {
	client *http.Client
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler() *ProxyHandler {
	return &ProxyHandler{
		client: &http.Client{Timeout: constants.ProxyTimeout},
	}
}

// Proxy fetches an http(s) URL and passes its body and content type through.
func (h *ProxyHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		respondError(w, http.StatusBadRequest, "missing_url")
		return
	}
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		respondError(w, http.StatusBadRequest, "invalid_scheme")
		return
	}

	data, contentType, err := h.fetch(r.Context(), target)
	if err != nil {
		log.Printf("Proxy: fetch %s failed: %v", sanitizeForLog(target), err)
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"error":  "fetch_failed",
			"detail": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", constants.ProxyCacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ProxyHandler) fetch(ctx context.Context, target string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ProxyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", constants.ProxyUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upstream body: %w", err)
	}
	if len(data) > constants.MaxUploadSize {
		return nil, "", fmt.Errorf("upstream body exceeds %d bytes", constants.MaxUploadSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
