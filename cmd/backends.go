package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/servicehub/internal/ai"
	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/database/postgres"
	"github.com/kozaktomas/servicehub/internal/facematch"
	"github.com/kozaktomas/servicehub/internal/faceservice"
)

// initStorage connects to PostgreSQL, runs migrations and registers every repository.
// The returned enrollment repository is also registered as the index rebuilder.
func initStorage(cfg *config.Config) (*postgres.EnrollmentRepository, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	pool := postgres.GetGlobalPool()
	userRepo := postgres.NewUserRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	enrollmentRepo := postgres.NewEnrollmentRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)

	database.RegisterPostgresBackend(
		func() database.UserWriter { return userRepo },
		func() database.CatalogWriter { return catalogRepo },
		func() database.BookingWriter { return bookingRepo },
		func() database.EnrollmentWriter { return enrollmentRepo },
		func() database.AttendanceWriter { return attendanceRepo },
	)
	database.RegisterEnrollmentIndexRebuilder(enrollmentRepo)
	return enrollmentRepo, nil
}

// initEnrollmentIndex builds or loads the enrollment HNSW index for similar-identity search.
func initEnrollmentIndex(ctx context.Context, repo *postgres.EnrollmentRepository, indexPath string) {
	if indexPath != "" {
		fmt.Printf("Loading enrollment index from %s...\n", indexPath)
	} else {
		fmt.Printf("Building in-memory enrollment index...\n")
	}
	if err := repo.EnableIndex(ctx, indexPath); err != nil {
		fmt.Printf("Warning: Failed to build enrollment index: %v\n", err)
		fmt.Printf("Similar-identity search will use PostgreSQL queries (slower)\n")
	} else if indexPath != "" {
		fmt.Printf("Enrollment index ready with %d enrollments (persisted to %s)\n", repo.IndexCount(), indexPath)
	} else {
		fmt.Printf("Enrollment index built with %d enrollments (in-memory only)\n", repo.IndexCount())
	}
}

// saveEnrollmentIndex saves the enrollment index to disk if one is registered.
func saveEnrollmentIndex() {
	rebuilder := database.GetEnrollmentIndexRebuilder()
	if rebuilder == nil {
		return
	}
	if err := rebuilder.SaveIndex(); err != nil {
		fmt.Printf("Warning: failed to save enrollment index: %v\n", err)
	} else {
		fmt.Println("Enrollment index saved to disk")
	}
}

// newFaceSelector creates the encoder selector. Without FACE_SERVER_URL it always
// selects the fallback encoder.
func newFaceSelector(cfg *config.Config) *facematch.Selector {
	var capability facematch.FaceCapability
	if cfg.Face.URL != "" {
		capability = faceservice.NewClient(cfg.Face.URL, cfg.Face.MaxImageSize, cfg.Face.Timeout)
	}
	return facematch.NewSelector(capability, cfg.Face.Dim, cfg.Face.ProbeTimeout)
}

// newClassifier creates the LLM classifier selected by RECOMMEND_PROVIDER.
// Returns nil when no provider is selected or its key is missing.
func newClassifier(ctx context.Context, cfg *config.Config) (ai.Classifier, error) {
	switch cfg.Recommend.Provider {
	case "":
		return nil, nil
	case "openai":
		if cfg.OpenAI.Token == "" {
			fmt.Println("Warning: RECOMMEND_PROVIDER=openai but OPENAI_TOKEN is not set, using keyword scoring")
			return nil, nil
		}
		return ai.NewOpenAIClassifier(cfg.OpenAI.Token, cfg.OpenAI.Model), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			fmt.Println("Warning: RECOMMEND_PROVIDER=gemini but GEMINI_API_KEY is not set, using keyword scoring")
			return nil, nil
		}
		classifier, err := ai.NewGeminiClassifier(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini classifier: %w", err)
		}
		return classifier, nil
	default:
		return nil, fmt.Errorf("unknown RECOMMEND_PROVIDER %q (expected openai or gemini)", cfg.Recommend.Provider)
	}
}
