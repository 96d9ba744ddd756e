package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kozaktomas/servicehub/internal/ai"
	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/database/mock"
)

type fakeClassifier struct {
	result *ai.Classification
	err    error
	calls  int
}

func (f *fakeClassifier) Name() string { return "fake-model" }

func (f *fakeClassifier) Classify(ctx context.Context, request string, categories []string) (*ai.Classification, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeClassifier) GetUsage() *ai.Usage { return &ai.Usage{} }

func (f *fakeClassifier) ResetUsage() {}

func newTestRecommender(t *testing.T, classifier ai.Classifier) (*Recommender, *mock.MockCatalog) {
	t.Helper()
	catalog := mock.NewMockCatalog()
	catalog.AddProvider(database.Provider{ID: "p1", Name: "Ravi", Categories: []string{"Plumber"}, Rating: 4.2})
	catalog.AddProvider(database.Provider{ID: "p2", Categories: []string{"Plumber", "Cleaning"}, Rating: 4.8})
	catalog.AddProvider(database.Provider{ID: "p3", Name: "Anil", Categories: []string{"Electrician"}, Rating: 4.9})
	catalog.AddProvider(database.Provider{ID: "p4", Name: "Sita", Categories: []string{"Cleaning"}, Rating: 4.2})
	catalog.AddProvider(database.Provider{ID: "p5", Name: "Tutor Tom", Categories: []string{"Tutor"}, Rating: 5.0})

	return New(config.Load().Recommend, catalog, classifier), catalog
}

func TestScoreCategories(t *testing.T) {
	r, _ := newTestRecommender(t, nil)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"best first", "my kitchen tap is leaking water", []string{"plumber", "cleaning"}},
		{"ties keep catalogue order", "light and kitchen", []string{"electrician", "cleaning"}},
		{"multi word keyword", "the air conditioner is not cooling", []string{"ac repair"}},
		{"diacritics ignored", "Kítchen cléaning", []string{"cleaning"}},
		{"empty text uses fallback", "", []string{"plumber", "electrician", "cleaning"}},
		{"no keywords uses fallback", "hello there", []string{"plumber", "electrician", "cleaning"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ScoreCategories(tt.text)
			if strings.Join(got, ",") != strings.Join(tt.expected, ",") {
				t.Errorf("ScoreCategories(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestScoreCategories_AtMostThree(t *testing.T) {
	r, _ := newTestRecommender(t, nil)
	got := r.ScoreCategories("leak near the light switch, sofa dust, math exam study, car brake")
	if len(got) != 3 {
		t.Fatalf("expected 3 categories, got %v", got)
	}
}

func TestScoreCategories_FallbackIsACopy(t *testing.T) {
	r, _ := newTestRecommender(t, nil)
	got := r.ScoreCategories("")
	got[0] = "changed"
	if r.ScoreCategories("")[0] != "plumber" {
		t.Error("fallback list was modified through a returned slice")
	}
}

func TestTitleCase(t *testing.T) {
	got := TitleCase([]string{"plumber", "ac repair", "appliance repair"})
	want := "Plumber,Ac Repair,Appliance Repair"
	if strings.Join(got, ",") != want {
		t.Errorf("TitleCase() = %v, want %s", got, want)
	}
}

func TestRankProviders(t *testing.T) {
	providers := []database.Provider{
		{ID: "a", Categories: []string{"plumber"}, Rating: 4.0},
		{ID: "b", Categories: []string{"Plumber"}, Rating: 4.5},
		{ID: "c", Categories: []string{"Cleaning"}, Rating: 4.5},
		{ID: "d", Categories: []string{"Tutor"}, Rating: 5.0},
		{ID: "e", Categories: []string{"Plumber"}, Rating: 3.0},
	}

	got := RankProviders(providers, []string{"Plumber", "Cleaning"}, 3)
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	if strings.Join(ids, ",") != "b,c,a" {
		t.Errorf("RankProviders() = %v, want [b c a]", ids)
	}

	if got := RankProviders(providers, []string{"Mechanic"}, 3); len(got) != 0 {
		t.Errorf("expected no providers, got %v", got)
	}
}

func TestRecommend_Keywords(t *testing.T) {
	r, _ := newTestRecommender(t, nil)

	rec, err := r.Recommend(context.Background(), "pipe leak, sofa needs a wash")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if strings.Join(rec.Categories, ",") != "Plumber,Cleaning" {
		t.Errorf("unexpected categories %v", rec.Categories)
	}
	if rec.Source != SourceKeywords {
		t.Errorf("expected keyword source, got %s", rec.Source)
	}
	if len(rec.Providers) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(rec.Providers))
	}
	if rec.Providers[0].ID != "p2" || rec.Providers[0].Name != "Provider p2" {
		t.Errorf("expected unnamed p2 first, got %+v", rec.Providers[0])
	}
	if rec.Providers[0].Reason != "High rating in Plumber, Cleaning" {
		t.Errorf("unexpected reason %q", rec.Providers[0].Reason)
	}
	if rec.Providers[1].ID != "p1" || rec.Providers[2].ID != "p4" {
		t.Errorf("expected p1 then p4 on equal rating, got %s, %s", rec.Providers[1].ID, rec.Providers[2].ID)
	}
	if rec.Reason == "" {
		t.Error("expected an overall reason")
	}
}

func TestRecommend_NoProviders(t *testing.T) {
	r, _ := newTestRecommender(t, nil)
	rec, err := r.Recommend(context.Background(), "car engine puncture")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if rec.Providers == nil || len(rec.Providers) != 0 {
		t.Errorf("expected an empty provider list, got %v", rec.Providers)
	}
}

func TestRecommend_Classifier(t *testing.T) {
	classifier := &fakeClassifier{result: &ai.Classification{Categories: []string{"electrician"}}}
	r, _ := newTestRecommender(t, classifier)

	rec, err := r.Recommend(context.Background(), "sparks from the socket")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if strings.Join(rec.Categories, ",") != "Electrician" {
		t.Errorf("unexpected categories %v", rec.Categories)
	}
	if rec.Source != "fake-model" {
		t.Errorf("expected classifier source, got %s", rec.Source)
	}
	if len(rec.Providers) != 1 || rec.Providers[0].ID != "p3" {
		t.Errorf("expected p3, got %+v", rec.Providers)
	}
}

func TestRecommend_ClassifierFallsBack(t *testing.T) {
	tests := []struct {
		name       string
		classifier *fakeClassifier
	}{
		{"error", &fakeClassifier{err: errors.New("quota exceeded")}},
		{"empty answer", &fakeClassifier{result: &ai.Classification{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRecommender(t, tt.classifier)
			rec, err := r.Recommend(context.Background(), "water tap")
			if err != nil {
				t.Fatalf("Recommend failed: %v", err)
			}
			if tt.classifier.calls != 1 {
				t.Errorf("expected classifier to be asked once, got %d", tt.classifier.calls)
			}
			if rec.Source != SourceKeywords || strings.Join(rec.Categories, ",") != "Plumber" {
				t.Errorf("expected keyword fallback, got %+v", rec)
			}
		})
	}
}

func TestRecommend_EmptyTextSkipsClassifier(t *testing.T) {
	classifier := &fakeClassifier{result: &ai.Classification{Categories: []string{"tutor"}}}
	r, _ := newTestRecommender(t, classifier)
	if _, err := r.Recommend(context.Background(), "   "); err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if classifier.calls != 0 {
		t.Errorf("expected classifier not to be called, got %d calls", classifier.calls)
	}
}

func TestRecommend_CatalogError(t *testing.T) {
	r, catalog := newTestRecommender(t, nil)
	catalog.ListProvidersError = errors.New("db down")
	if _, err := r.Recommend(context.Background(), "leak"); err == nil {
		t.Error("expected error")
	}
}
