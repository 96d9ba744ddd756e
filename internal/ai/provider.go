package ai

import "context"

// Classifier maps a free-text customer request to service categories.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, request string, categories []string) (*Classification, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Classification is the model's answer for one request.
type Classification struct {
	// Categories in order of relevance, restricted to the allowed list.
	Categories []string `json:"categories"`
	// Reasoning is a short explanation of the choice.
	Reasoning string `json:"reasoning"`
}
