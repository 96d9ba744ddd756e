// Package constants provides shared constants used across the codebase.
package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the maximum image upload size in bytes (20MB)
	MaxUploadSize = 20 << 20

	// MaxJSONBodySize is the maximum JSON request body size in bytes (30MB, base64 images inflate by 4/3)
	MaxJSONBodySize = 30 << 20
)

// Proxy constants
const (
	// ProxyTimeout bounds a single upstream fetch made by the image proxy
	ProxyTimeout = 10 * time.Second

	// ProxyCacheControl is sent with every proxied response
	ProxyCacheControl = "public, max-age=86400"

	// ProxyUserAgent is sent upstream by the image proxy
	ProxyUserAgent = "Mozilla/5.0"
)

// Server constants
const (
	// RequestTimeout is the per-request timeout applied by the router
	RequestTimeout = 60 * time.Second
)
