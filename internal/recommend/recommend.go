// Package recommend suggests service categories and providers for a free-text request.
package recommend

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kozaktomas/servicehub/internal/ai"
	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/database"
)

const (
	SourceKeywords = "keywords"

	keywordReason    = "Categories come from keyword matches in the request; providers are ranked by rating."
	classifierReason = "Categories were suggested by %s; providers are ranked by rating."
)

// ProviderPick is a recommended provider.
type ProviderPick struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	Categories []string `json:"categories"`
	Reason     string   `json:"reason"`
}

// Recommendation is the answer to one request.
type Recommendation struct {
	Categories []string       `json:"categories"`
	Providers  []ProviderPick `json:"providers"`
	Reason     string         `json:"reason"`
	Source     string         `json:"source"` // "keywords" or the classifier model name
}

// Recommender scores requests against the keyword catalogue and optionally asks an LLM classifier first.
type Recommender struct {
	categories []config.Category
	fallback   []string
	catalog    database.CatalogReader
	classifier ai.Classifier
}

// New creates a recommender. classifier may be nil.
func New(cfg config.RecommendConfig, catalog database.CatalogReader, classifier ai.Classifier) *Recommender {
	return &Recommender{
		categories: cfg.Categories,
		fallback:   cfg.Fallback,
		catalog:    catalog,
		classifier: classifier,
	}
}

// CategoryNames returns the catalogue category names in catalogue order.
func (r *Recommender) CategoryNames() []string {
	names := make([]string, len(r.categories))
	for i, c := range r.categories {
		names[i] = c.Name
	}
	return names
}

// ScoreCategories counts, for every category, how many of its keywords occur in text.
// Categories with a positive score are returned best first; equal scores keep catalogue
// order. When nothing scores, the fallback list is returned.
func (r *Recommender) ScoreCategories(text string) []string {
	text = NormalizeText(text)

	type scored struct {
		name  string
		score int
	}
	var ranked []scored
	for _, c := range r.categories {
		score := 0
		for _, kw := range c.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{c.Name, score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) == 0 {
		return append([]string(nil), r.fallback...)
	}
	if len(ranked) > constants.MaxRecommendedCategories {
		ranked = ranked[:constants.MaxRecommendedCategories]
	}
	names := make([]string, len(ranked))
	for i, s := range ranked {
		names[i] = s.name
	}
	return names
}

// Recommend picks categories for text and the best rated providers offering them.
func (r *Recommender) Recommend(ctx context.Context, text string) (*Recommendation, error) {
	categories, source, reason := r.classify(ctx, text)

	providers, err := r.catalog.ListProviders(ctx, database.ProviderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	titled := TitleCase(categories)
	ranked := RankProviders(providers, titled, constants.MaxRecommendedProviders)
	picks := make([]ProviderPick, 0, len(ranked))
	for _, p := range ranked {
		name := p.Name
		if name == "" {
			name = "Provider " + p.ID
		}
		picks = append(picks, ProviderPick{
			ID:         p.ID,
			Name:       name,
			Rating:     p.Rating,
			Categories: p.Categories,
			Reason:     "High rating in " + strings.Join(p.Categories, ", "),
		})
	}

	return &Recommendation{
		Categories: titled,
		Providers:  picks,
		Reason:     reason,
		Source:     source,
	}, nil
}

// classify asks the classifier when one is configured and falls back to keyword scoring
// on any failure or an empty answer.
func (r *Recommender) classify(ctx context.Context, text string) (categories []string, source, reason string) {
	if r.classifier != nil && strings.TrimSpace(text) != "" {
		result, err := r.classifier.Classify(ctx, text, r.CategoryNames())
		switch {
		case err != nil:
			log.Printf("Recommend: classifier %s failed, using keywords: %v", r.classifier.Name(), err)
		case len(result.Categories) == 0:
			log.Printf("Recommend: classifier %s returned no categories, using keywords", r.classifier.Name())
		default:
			return result.Categories, r.classifier.Name(), fmt.Sprintf(classifierReason, r.classifier.Name())
		}
	}
	return r.ScoreCategories(text), SourceKeywords, keywordReason
}

// TitleCase capitalises every word of each category name ("ac repair" -> "Ac Repair").
func TitleCase(categories []string) []string {
	caser := cases.Title(language.English)
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = caser.String(c)
	}
	return out
}

// RankProviders keeps providers offering any of categories (case-insensitive), sorted by
// rating descending with ties in catalogue order, at most limit of them.
func RankProviders(providers []database.Provider, categories []string, limit int) []database.Provider {
	var matched []database.Provider
	for i := range providers {
		for _, c := range categories {
			if providers[i].HasCategory(c) {
				matched = append(matched, providers[i])
				break
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Rating > matched[j].Rating
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
