//go:build integration

package postgres

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func embeddingWith(first float32) []float32 {
	e := make([]float32, facematch.EmbeddingDim)
	e[0] = first
	return e
}

func TestUserRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewUserRepository(pool)

	t.Run("CreateAndGet", func(t *testing.T) {
		user := &database.User{ID: "u1", Name: "Asha", Email: "asha@example.com", Role: "user", CreatedAt: time.Now().UTC()}
		if err := repo.CreateUser(ctx, user); err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}

		got, err := repo.GetUser(ctx, "u1")
		if err != nil {
			t.Fatalf("Failed to get user: %v", err)
		}
		if got == nil || got.Email != "asha@example.com" {
			t.Errorf("Expected user asha@example.com, got %+v", got)
		}
	})

	t.Run("GetByEmailReturnsEarliest", func(t *testing.T) {
		dup := &database.User{ID: "u2", Name: "Asha Again", Email: "asha@example.com", Role: "user", CreatedAt: time.Now().UTC()}
		if err := repo.CreateUser(ctx, dup); err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}

		got, err := repo.GetUserByEmail(ctx, "asha@example.com")
		if err != nil {
			t.Fatalf("Failed to get user by email: %v", err)
		}
		if got == nil || got.ID != "u1" {
			t.Errorf("Expected earliest user u1, got %+v", got)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil, got %+v", got)
		}
	})
}

func TestCatalogRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewCatalogRepository(pool)

	price := 450.0
	providers := []database.Provider{
		{ID: "p1", Name: "Ravi", Categories: []string{"Plumber"}, Rating: 4.5, Verified: true},
		{ID: "p2", Name: "Meera", Categories: []string{"Cleaning", "Plumber"}, Rating: 4.9},
	}
	for i := range providers {
		if err := repo.SaveProvider(ctx, &providers[i]); err != nil {
			t.Fatalf("Failed to save provider: %v", err)
		}
	}
	services := []database.Service{
		{ID: "s1", ProviderID: "p1", Title: "Leak Repair", Description: "Fix taps", Category: "Plumber", Price: &price, Currency: "INR"},
		{ID: "s2", ProviderID: "p2", Title: "Deep Clean", Description: "Kitchen and bathroom", Category: "Cleaning"},
	}
	for i := range services {
		if err := repo.SaveService(ctx, &services[i]); err != nil {
			t.Fatalf("Failed to save service: %v", err)
		}
	}

	t.Run("ServicesByQuery", func(t *testing.T) {
		got, err := repo.ListServices(ctx, database.ServiceFilter{Query: "KITCHEN"})
		if err != nil {
			t.Fatalf("Failed to list services: %v", err)
		}
		if len(got) != 1 || got[0].ID != "s2" {
			t.Errorf("Expected s2, got %+v", got)
		}
		if got[0].Price != nil {
			t.Errorf("Expected nil price, got %v", *got[0].Price)
		}
	})

	t.Run("GetService", func(t *testing.T) {
		got, err := repo.GetService(ctx, "s1")
		if err != nil {
			t.Fatalf("Failed to get service: %v", err)
		}
		if got == nil || got.Price == nil || *got.Price != 450 {
			t.Errorf("Expected s1 with price 450, got %+v", got)
		}

		missing, err := repo.GetService(ctx, "nope")
		if err != nil || missing != nil {
			t.Errorf("Expected nil service without error, got %+v, %v", missing, err)
		}
	})

	t.Run("ProvidersByCategoryAndVerified", func(t *testing.T) {
		got, err := repo.ListProviders(ctx, database.ProviderFilter{Category: "Plumber"})
		if err != nil {
			t.Fatalf("Failed to list providers: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 plumbers, got %d", len(got))
		}

		verified := true
		got, err = repo.ListProviders(ctx, database.ProviderFilter{Category: "Plumber", Verified: &verified})
		if err != nil {
			t.Fatalf("Failed to list providers: %v", err)
		}
		if len(got) != 1 || got[0].ID != "p1" {
			t.Errorf("Expected p1, got %+v", got)
		}
	})
}

func TestBookingRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewBookingRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	booking := &database.Booking{
		ID: "b1", UserID: "u1", ProviderID: "p1", ServiceID: "s1",
		ScheduledAt: now.Add(24 * time.Hour), Address: "12 MG Road",
		Status: "pending", PaymentStatus: "unpaid", Amount: 999, Currency: "INR",
		ServiceTitle: "Leak Repair", ServiceCategory: "Plumber", CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	got, err := repo.GetBooking(ctx, "b1")
	if err != nil {
		t.Fatalf("Failed to get booking: %v", err)
	}
	if got == nil || got.Address != "12 MG Road" || !got.ScheduledAt.Equal(booking.ScheduledAt) {
		t.Errorf("Unexpected booking %+v", got)
	}

	if err := repo.CreateReview(ctx, &database.Review{ID: "r1", BookingID: "b1", Rating: 5, CreatedAt: now}); err != nil {
		t.Errorf("Failed to create review: %v", err)
	}
	if err := repo.CreateTransaction(ctx, &database.Transaction{ID: "t1", BookingID: "b1", Amount: 999, Currency: "INR", Status: "created", CreatedAt: now}); err != nil {
		t.Errorf("Failed to create transaction: %v", err)
	}
}

func TestEnrollmentRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewEnrollmentRepository(pool)

	enrollments := []*database.StoredEnrollment{
		{Identity: "alice", Embedding: embeddingWith(0), Encoder: "fallback", Meta: map[string]any{"name": "Alice"}},
		{Identity: "bob", Embedding: embeddingWith(1), Encoder: "fallback"},
		{Identity: "alice", Embedding: embeddingWith(0.2), Encoder: "fallback"},
	}
	for _, e := range enrollments {
		if err := repo.SaveEnrollment(ctx, e); err != nil {
			t.Fatalf("Failed to save enrollment: %v", err)
		}
		if e.ID == 0 {
			t.Fatal("Expected an assigned ID")
		}
	}

	t.Run("ListInEnrollmentOrder", func(t *testing.T) {
		got, err := repo.ListEnrollments(ctx)
		if err != nil {
			t.Fatalf("Failed to list enrollments: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 enrollments, got %d", len(got))
		}
		if got[0].Identity != "alice" || got[1].Identity != "bob" {
			t.Errorf("Unexpected order: %s, %s", got[0].Identity, got[1].Identity)
		}
		if got[0].Meta["name"] != "Alice" {
			t.Errorf("Metadata not round-tripped: %v", got[0].Meta)
		}
		if len(got[0].Embedding) != facematch.EmbeddingDim {
			t.Errorf("Expected %d dims, got %d", facematch.EmbeddingDim, len(got[0].Embedding))
		}

		result := facematch.Match(facematch.Embedding(embeddingWith(0.9)), database.EnrollmentRecords(got, facematch.KindFallback), 0.6)
		if result == nil || result.Identity != "bob" {
			t.Errorf("Expected bob to match, got %+v", result)
		}
	})

	t.Run("FindSimilarPostgres", func(t *testing.T) {
		got, distances, err := repo.FindSimilar(ctx, embeddingWith(0.15), 2)
		if err != nil {
			t.Fatalf("Failed to find similar: %v", err)
		}
		if len(got) != 2 || got[0].ID != enrollments[2].ID {
			t.Fatalf("Expected nearest to be the second alice enrollment, got %+v", got)
		}
		if math.Abs(distances[0]-0.05) > 1e-4 {
			t.Errorf("Expected distance ~0.05, got %v", distances[0])
		}
	})

	t.Run("FindSimilarIndex", func(t *testing.T) {
		indexPath := filepath.Join(t.TempDir(), "enrollments.hnsw")
		if err := repo.EnableIndex(ctx, indexPath); err != nil {
			t.Fatalf("Failed to enable index: %v", err)
		}
		defer repo.DisableIndex()

		if repo.IndexCount() != 3 {
			t.Errorf("Expected 3 indexed enrollments, got %d", repo.IndexCount())
		}

		got, _, err := repo.FindSimilar(ctx, embeddingWith(1), 1)
		if err != nil {
			t.Fatalf("Failed to find similar: %v", err)
		}
		if len(got) != 1 || got[0].Identity != "bob" {
			t.Errorf("Expected bob, got %+v", got)
		}

		// Reloading from disk uses the cached index.
		if err := repo.RebuildIndex(ctx); err != nil {
			t.Fatalf("Failed to rebuild index: %v", err)
		}
		if repo.IndexCount() != 3 {
			t.Errorf("Expected 3 indexed enrollments after reload, got %d", repo.IndexCount())
		}
	})

	t.Run("DeleteByIdentity", func(t *testing.T) {
		n, err := repo.DeleteEnrollments(ctx, "alice")
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 deleted, got %d", n)
		}
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 remaining, got %d", count)
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewAttendanceRepository(pool)
	now := time.Now().UTC()

	for i, method := range []string{"face", "manual"} {
		record := &database.Attendance{
			ID: fmt.Sprintf("a%d", i), UserID: "u1", BookingID: "b1", Method: method,
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.MarkAttendance(ctx, record); err != nil {
			t.Fatalf("Failed to mark attendance: %v", err)
		}
	}

	got, err := repo.ListAttendance(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to list attendance: %v", err)
	}
	if len(got) != 2 || got[0].Method != "manual" {
		t.Errorf("Expected newest first, got %+v", got)
	}
}

func TestMigrationsApplied(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	versions, err := pool.MigrationsApplied(context.Background())
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_init.sql" {
		t.Errorf("Expected 001_init.sql applied, got %v", versions)
	}

	// Migrating again is a no-op.
	if err := pool.Migrate(context.Background()); err != nil {
		t.Errorf("Second migrate failed: %v", err)
	}
}
