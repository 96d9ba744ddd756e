package facematch

import "context"

// Extractor produces embeddings from image payloads using the encoder chosen at startup.
type Extractor struct {
	encoder Encoder
}

// NewExtractor creates an extractor around encoder.
func NewExtractor(encoder Encoder) *Extractor {
	return &Extractor{encoder: encoder}
}

// Kind returns which extraction path this extractor uses.
func (x *Extractor) Kind() EncoderKind {
	return x.encoder.Kind()
}

// Extract computes the embedding for raw image bytes.
func (x *Extractor) Extract(ctx context.Context, data []byte) (Embedding, error) {
	return x.encoder.Embed(ctx, data)
}

// ExtractBase64 computes the embedding for base64 image text. The text is decoded
// first, so it yields exactly the same embedding as Extract on the decoded bytes.
func (x *Extractor) ExtractBase64(ctx context.Context, text string) (Embedding, error) {
	data, err := DecodeBase64Image(text)
	if err != nil {
		return nil, err
	}
	return x.Extract(ctx, data)
}
