package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed prompts/service_classify.txt
var serviceClassifyPrompt string

// maxCategories caps how many categories a classification may return.
const maxCategories = 3

// buildClassifyPrompt returns the system prompt listing the allowed categories.
// This is shared across all AI providers.
func buildClassifyPrompt(categories []string) string {
	labelsJSON, _ := json.Marshal(categories)
	return fmt.Sprintf(serviceClassifyPrompt, string(labelsJSON))
}

// buildClassifyContent builds the user message for a customer request.
func buildClassifyContent(request string) string {
	return "Customer request: " + strings.TrimSpace(request)
}

// parseClassification decodes a model response and keeps only allowed categories,
// deduplicated, in the model's order, at most maxCategories of them.
func parseClassification(content string, allowed []string) (*Classification, error) {
	var c Classification
	if err := json.Unmarshal([]byte(extractJSON(content)), &c); err != nil {
		return nil, err
	}

	allowedSet := make(map[string]string, len(allowed))
	for _, a := range allowed {
		allowedSet[strings.ToLower(a)] = a
	}

	seen := make(map[string]bool)
	var categories []string
	for _, name := range c.Categories {
		canonical, ok := allowedSet[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		categories = append(categories, canonical)
		if len(categories) == maxCategories {
			break
		}
	}
	c.Categories = categories
	return &c, nil
}

// extractJSON strips markdown code fences some models wrap around JSON output.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}
	return content
}

// retryMessage is sent back to the model after it produced unparseable JSON.
func retryMessage(err error) string {
	return fmt.Sprintf("JSON parse error: %v. Please fix the JSON and try again. Respond with the JSON object only.", err)
}
