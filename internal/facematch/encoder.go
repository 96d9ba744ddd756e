package facematch

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"
)

// FaceCapability is a face detector/encoder, usually backed by a model server.
type FaceCapability interface {
	// Locate returns the face regions found in img, in detection order.
	Locate(ctx context.Context, img *image.RGBA) ([]Region, error)
	// Encode computes the embedding of the face inside region.
	Encode(ctx context.Context, img *image.RGBA, region Region) (Embedding, error)
}

// Prober is implemented by capabilities that can report whether they are reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Encoder converts raw image bytes into an embedding.
type Encoder interface {
	Kind() EncoderKind
	Embed(ctx context.Context, data []byte) (Embedding, error)
}

// CapabilityEncoder embeds images with a FaceCapability.
// Only the first detected face is encoded; faces are not ranked by size or score.
type CapabilityEncoder struct {
	capability FaceCapability
}

// NewCapabilityEncoder creates an encoder backed by capability.
func NewCapabilityEncoder(capability FaceCapability) *CapabilityEncoder {
	return &CapabilityEncoder{capability: capability}
}

// Kind implements Encoder.
func (e *CapabilityEncoder) Kind() EncoderKind {
	return KindFaceCapability
}

// Embed implements Encoder.
func (e *CapabilityEncoder) Embed(ctx context.Context, data []byte) (Embedding, error) {
	img, err := DecodeRGB(data)
	if err != nil {
		return nil, err
	}

	regions, err := e.capability.Locate(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("locating faces: %w", err)
	}
	if len(regions) == 0 {
		return nil, ErrNoFaceFound
	}

	emb, err := e.capability.Encode(ctx, img, regions[0])
	if err != nil {
		return nil, fmt.Errorf("encoding face: %w", err)
	}
	if len(emb) == 0 {
		return nil, ErrNoFaceFound
	}
	return emb, nil
}

// Selector decides once per process whether the face capability is usable and
// hands out the same Encoder for every later call.
type Selector struct {
	capability   FaceCapability
	dim          int
	probeTimeout time.Duration

	once    sync.Once
	encoder Encoder
}

// NewSelector creates a selector. A nil capability always selects the fallback encoder.
func NewSelector(capability FaceCapability, dim int, probeTimeout time.Duration) *Selector {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Selector{
		capability:   capability,
		dim:          dim,
		probeTimeout: probeTimeout,
	}
}

// Encoder returns the selected encoder, probing the capability on first use.
func (s *Selector) Encoder(ctx context.Context) Encoder {
	s.once.Do(func() {
		s.encoder = s.selectEncoder(ctx)
	})
	return s.encoder
}

func (s *Selector) selectEncoder(ctx context.Context) Encoder {
	if s.capability == nil {
		log.Printf("No face capability configured, using deterministic fallback encoder")
		return NewFallbackEncoder(s.dim)
	}

	if p, ok := s.capability.(Prober); ok {
		probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
		defer cancel()
		if err := p.Probe(probeCtx); err != nil {
			log.Printf("Face capability unavailable (%v), using deterministic fallback encoder", err)
			return NewFallbackEncoder(s.dim)
		}
	}

	log.Printf("Face capability available, using real face encoder")
	return NewCapabilityEncoder(s.capability)
}
