package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiClassifier struct {
	client *genai.Client
	model  string

	mu    sync.Mutex
	usage Usage
}

// NewGeminiClassifier creates a classifier backed by the Gemini API.
// A non-empty baseURL overrides the API endpoint.
func NewGeminiClassifier(ctx context.Context, apiKey, model, baseURL string) (*GeminiClassifier, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClassifier{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiClassifier) GetUsage() *Usage {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := p.usage
	return &u
}

func (p *GeminiClassifier) ResetUsage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage = Usage{}
}

func (p *GeminiClassifier) trackUsage(inputTokens, outputTokens int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage.InputTokens += int(inputTokens)
	p.usage.OutputTokens += int(outputTokens)
}

func (p *GeminiClassifier) Name() string {
	return p.model
}

func (p *GeminiClassifier) Classify(ctx context.Context, request string, categories []string) (*Classification, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildClassifyPrompt(categories) + "\n\n" + buildClassifyContent(request)},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastError error
	var lastResponse string

	for range maxRetries {
		result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}

		if result.UsageMetadata != nil {
			p.trackUsage(result.UsageMetadata.PromptTokenCount, result.UsageMetadata.CandidatesTokenCount)
		}

		content := result.Text()
		if content == "" {
			return nil, errors.New("no response from Gemini")
		}
		lastResponse = content

		classification, err := parseClassification(content, categories)
		if err != nil {
			lastError = err

			contents = append(contents,
				&genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: content}},
				},
				&genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: retryMessage(err)}},
				},
			)
			continue
		}

		return classification, nil
	}

	return nil, fmt.Errorf("failed to parse classification JSON after %d attempts: %w (last response: %s)", maxRetries, lastError, lastResponse)
}
