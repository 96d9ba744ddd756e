// Package faceservice talks to a face detection/encoding server over HTTP and
// exposes it as a facematch.FaceCapability.
package faceservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/servicehub/internal/facematch"
)

const (
	defaultBaseURL      = "http://localhost:8001"
	defaultMaxImageSize = 1024
	defaultTimeout      = 30 * time.Second
)

// Client computes face locations and encodings using the face server.
type Client struct {
	baseURL      string
	maxImageSize int
	client       *http.Client
}

// NewClient creates a new face server client. Images whose longest side exceeds
// maxImageSize are downscaled before upload.
func NewClient(baseURL string, maxImageSize int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxImageSize <= 0 {
		maxImageSize = defaultMaxImageSize
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		maxImageSize: maxImageSize,
		client:       &http.Client{Timeout: timeout},
	}
}

// locationsResponse represents the response from the face locations endpoint
type locationsResponse struct {
	Locations [][]float64 `json:"locations"` // [top, right, bottom, left]
}

// encodingResponse represents the response from the face encodings endpoint
type encodingResponse struct {
	Encoding []float32 `json:"encoding"`
}

// Probe checks that the face server is reachable and healthy.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// Locate implements facematch.FaceCapability. Regions are returned in the
// coordinates of img, even when a downscaled copy was uploaded.
func (c *Client) Locate(ctx context.Context, img *image.RGBA) ([]facematch.Region, error) {
	upload, scale, err := prepareUpload(img, c.maxImageSize)
	if err != nil {
		return nil, err
	}

	body, err := c.postMultipartImage(ctx, "/face/locations", upload, nil)
	if err != nil {
		return nil, err
	}

	var locResp locationsResponse
	if err := json.Unmarshal(body, &locResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	regions := make([]facematch.Region, 0, len(locResp.Locations))
	for _, loc := range locResp.Locations {
		region, ok := facematch.RegionFromCSS(loc)
		if !ok {
			return nil, fmt.Errorf("malformed face location: %v", loc)
		}
		region = region.Scale(1 / scale).Clamp(img.Bounds())
		if region.Empty() {
			continue
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// Encode implements facematch.FaceCapability.
func (c *Client) Encode(ctx context.Context, img *image.RGBA, region facematch.Region) (facematch.Embedding, error) {
	upload, scale, err := prepareUpload(img, c.maxImageSize)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{"location": formatLocation(region.Scale(scale))}
	body, err := c.postMultipartImage(ctx, "/face/encodings", upload, fields)
	if err != nil {
		return nil, err
	}

	var encResp encodingResponse
	if err := json.Unmarshal(body, &encResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(encResp.Encoding) == 0 {
		return nil, errors.New("empty encoding returned")
	}

	return facematch.Embedding(encResp.Encoding), nil
}

// postMultipartImage constructs a multipart form with the image data and any extra
// fields and posts it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// formatLocation renders a region as "top,right,bottom,left".
func formatLocation(r facematch.Region) string {
	parts := make([]string, 0, 4)
	for _, v := range r.CSS() {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
