// Package facematch turns face images into fixed-length embeddings and finds the
// closest enrolled identity for a query embedding.
//
// Nothing in this package keeps mutable state between calls, so an Extractor and
// Match can be used from any number of goroutines at once.
package facematch

import (
	"errors"
	"math"
)

// EmbeddingDim is the embedding length produced by both encoder variants.
const EmbeddingDim = 128

var (
	// ErrInvalidImage is returned when the input cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoFaceFound is returned when a decodable image contains no detectable face.
	ErrNoFaceFound = errors.New("no face found")
	// ErrDimensionMismatch is returned when two embeddings of different length are compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedding is an ordered, fixed-length face signature.
// Embeddings from the face capability are not unit length; fallback embeddings are.
type Embedding []float32

// Norm returns the Euclidean norm of the embedding.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// EnrollmentRecord associates an identity with a previously stored embedding.
type EnrollmentRecord struct {
	Identity  string         `json:"user_id"`
	Embedding Embedding      `json:"embedding"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// MatchResult is the closest enrolled identity within the match threshold.
type MatchResult struct {
	Identity string  `json:"user_id"`
	Distance float64 `json:"score"`
}

// EncoderKind tells which extraction path produced an embedding.
type EncoderKind string

const (
	KindFaceCapability EncoderKind = "face_capability" // real detector/encoder
	KindFallback       EncoderKind = "fallback"        // deterministic digest-based placeholder
)
