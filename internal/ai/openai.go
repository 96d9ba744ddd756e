package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultChatModel = openai.ChatModelGPT4_1Mini

// maxRetries bounds how often a model is asked to fix malformed JSON.
const maxRetries = 3

type OpenAIClassifier struct {
	client *openai.Client
	model  string

	mu    sync.Mutex
	usage Usage
}

// NewOpenAIClassifier creates a classifier backed by the chat completions API.
// Extra options (base URL, HTTP client) are passed through to the client.
func NewOpenAIClassifier(apiKey, model string, opts ...option.RequestOption) *OpenAIClassifier {
	if model == "" {
		model = defaultChatModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIClassifier{
		client: &client,
		model:  model,
	}
}

func (p *OpenAIClassifier) GetUsage() *Usage {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := p.usage
	return &u
}

func (p *OpenAIClassifier) ResetUsage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage = Usage{}
}

func (p *OpenAIClassifier) trackUsage(inputTokens, outputTokens int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage.InputTokens += int(inputTokens)
	p.usage.OutputTokens += int(outputTokens)
}

func (p *OpenAIClassifier) Name() string {
	return p.model
}

func (p *OpenAIClassifier) Classify(ctx context.Context, request string, categories []string) (*Classification, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(buildClassifyPrompt(categories)),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(buildClassifyContent(request)),
				},
			},
		},
	}

	var lastError error
	var lastResponse string

	for range maxRetries {
		resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    p.model,
			Messages: messages,
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
			MaxTokens: openai.Int(200),
		})
		if err != nil {
			return nil, fmt.Errorf("OpenAI API error: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, errors.New("no response from OpenAI")
		}

		if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
			p.trackUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}

		content := resp.Choices[0].Message.Content
		lastResponse = content

		classification, err := parseClassification(content, categories)
		if err != nil {
			lastError = err

			// Feed the bad answer back so the model can correct itself
			messages = append(messages,
				openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						Content: openai.ChatCompletionAssistantMessageParamContentUnion{
							OfString: openai.String(content),
						},
					},
				},
				openai.ChatCompletionMessageParamUnion{
					OfUser: &openai.ChatCompletionUserMessageParam{
						Content: openai.ChatCompletionUserMessageParamContentUnion{
							OfString: openai.String(retryMessage(err)),
						},
					},
				},
			)
			continue
		}

		return classification, nil
	}

	return nil, fmt.Errorf("failed to parse classification JSON after %d attempts: %w (last response: %s)", maxRetries, lastError, lastResponse)
}
