package facematch

import (
	"context"
	"crypto/sha256"
)

// FallbackEncoder produces deterministic placeholder embeddings without any face
// detection. The vectors identify byte content, not faces, and exist so the rest of
// the system keeps working when no face capability is reachable.
type FallbackEncoder struct {
	dim int
}

// NewFallbackEncoder creates a fallback encoder producing dim-length embeddings.
func NewFallbackEncoder(dim int) *FallbackEncoder {
	if dim <= 0 {
		dim = EmbeddingDim
	}
	return &FallbackEncoder{dim: dim}
}

// Kind implements Encoder.
func (e *FallbackEncoder) Kind() EncoderKind {
	return KindFallback
}

// Embed implements Encoder. It never returns ErrNoFaceFound.
func (e *FallbackEncoder) Embed(_ context.Context, data []byte) (Embedding, error) {
	return SyntheticEmbedding(data, e.dim), nil
}

// SyntheticEmbedding derives a unit-length embedding from the SHA-256 digest of data.
// Digest bytes are read as unsigned 8-bit samples and repeated cyclically up to dim.
func SyntheticEmbedding(data []byte, dim int) Embedding {
	digest := sha256.Sum256(data)

	emb := make(Embedding, dim)
	for i := range emb {
		emb[i] = float32(digest[i%len(digest)])
	}

	norm := emb.Norm()
	if norm == 0 {
		return emb
	}
	for i := range emb {
		emb[i] = float32(float64(emb[i]) / norm)
	}
	return emb
}
