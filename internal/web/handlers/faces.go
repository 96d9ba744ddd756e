// This file contains the FacesHandler struct, its constructor and shared helpers.
// Handler methods are organized in separate files:
//   - face_detect.go: Detect, Verify
//   - face_match.go: Match, Similar
//   - face_enroll.go: Enroll, DeleteEnrollments, Status, RebuildIndex
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

// FacesHandler handles face embedding, enrollment and matching endpoints
type FacesHandler struct {
	config      *config.Config
	selector    *facematch.Selector
	enrollments database.EnrollmentWriter
	index       database.IndexRebuilder
}

// NewFacesHandler creates a new faces handler
func NewFacesHandler(cfg *config.Config, selector *facematch.Selector) *FacesHandler {
	h := &FacesHandler{
		config:   cfg,
		selector: selector,
		index:    database.GetEnrollmentIndexRebuilder(),
	}
	if enrollments, err := database.GetEnrollmentWriter(context.Background()); err == nil {
		h.enrollments = enrollments
	}
	return h
}

// faceRequest is the body shared by the face endpoints. It arrives either as JSON
// or as a multipart form whose "file" part carries the raw image.
type faceRequest struct {
	UserID      string         `json:"user_id"`
	ImageBase64 string         `json:"image_base64"`
	Embedding   []float32      `json:"embedding"`
	Threshold   *float64       `json:"threshold"`
	K           int            `json:"k"`
	Meta        map[string]any `json:"meta"`

	file    []byte
	hasFile bool
}

func (req *faceRequest) hasImage() bool {
	return req.hasFile || req.ImageBase64 != ""
}

var errNoImage = errors.New("no image provided")

// parseFaceRequest reads a JSON or multipart face request.
func parseFaceRequest(w http.ResponseWriter, r *http.Request) (*faceRequest, error) {
	req := &faceRequest{}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := decodeJSON(w, r, req); err != nil {
			return nil, err
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	req.UserID = r.FormValue("user_id")
	req.ImageBase64 = r.FormValue("image_base64")
	if s := r.FormValue("threshold"); s != "" {
		t, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold: %w", err)
		}
		req.Threshold = &t
	}
	if s := r.FormValue("k"); s != "" {
		k, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid k: %w", err)
		}
		req.K = k
	}

	file, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	req.file = data
	req.hasFile = true
	return req, nil
}

// encoder returns the process-wide encoder chosen at startup.
func (h *FacesHandler) encoder(ctx context.Context) facematch.Encoder {
	return h.selector.Encoder(ctx)
}

// extract computes the embedding of the request image with the selected encoder.
func (h *FacesHandler) extract(ctx context.Context, req *faceRequest) (facematch.Embedding, facematch.EncoderKind, error) {
	x := facematch.NewExtractor(h.encoder(ctx))
	if !req.hasImage() {
		return nil, x.Kind(), errNoImage
	}

	var emb facematch.Embedding
	var err error
	if req.hasFile {
		emb, err = x.Extract(ctx, req.file)
	} else {
		emb, err = x.ExtractBase64(ctx, req.ImageBase64)
	}
	return emb, x.Kind(), err
}

// thresholdFor returns the explicit threshold of the request or the default for kind.
func (h *FacesHandler) thresholdFor(req *faceRequest, kind facematch.EncoderKind) (float64, error) {
	if req.Threshold == nil {
		return h.config.Face.ThresholdFor(kind), nil
	}
	if *req.Threshold < 0 {
		return 0, errors.New("threshold must be non-negative")
	}
	return *req.Threshold, nil
}

// respondExtractError maps an extraction error to an HTTP response.
func respondExtractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoImage):
		respondError(w, http.StatusBadRequest, errNoImage.Error())
	case errors.Is(err, facematch.ErrInvalidImage):
		respondError(w, http.StatusBadRequest, "invalid image")
	case errors.Is(err, facematch.ErrNoFaceFound):
		respondError(w, http.StatusNotFound, "no face found")
	default:
		respondError(w, http.StatusBadGateway, "face service unavailable")
	}
}
