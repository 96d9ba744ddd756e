package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/servicehub/internal/database"
)

// EnrollmentRepository provides PostgreSQL-backed face enrollment storage with an
// optional in-memory HNSW index for similar-identity search.
type EnrollmentRepository struct {
	pool         *Pool
	index        *database.EnrollmentIndex
	indexEnabled bool
	indexPath    string // Path to persist the HNSW index (optional)
	indexMu      sync.RWMutex
}

// NewEnrollmentRepository creates a new PostgreSQL enrollment repository.
func NewEnrollmentRepository(pool *Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// ListEnrollments returns every enrollment ordered by ID, which is enrollment order.
func (r *EnrollmentRepository) ListEnrollments(ctx context.Context) ([]database.StoredEnrollment, error) {
	query := `
		SELECT id, identity, embedding, encoder, meta, created_at
		FROM face_enrollments
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []database.StoredEnrollment
	for rows.Next() {
		e, err := scanEnrollmentRow(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return enrollments, nil
}

// Count returns the total number of enrollments stored.
func (r *EnrollmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM face_enrollments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// SaveEnrollment stores an enrollment and assigns its ID and creation time.
func (r *EnrollmentRepository) SaveEnrollment(ctx context.Context, e *database.StoredEnrollment) error {
	// JSONB is sent as text; lib/pq would send []byte in bytea format.
	var meta sql.NullString
	if len(e.Meta) > 0 {
		data, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("marshal enrollment metadata: %w", err)
		}
		meta = sql.NullString{String: string(data), Valid: true}
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO face_enrollments (identity, embedding, encoder, meta)
		VALUES ($1, $2::vector, $3, $4)
		RETURNING id, created_at
	`, e.Identity, pgvector.NewVector(e.Embedding), e.Encoder, meta).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	if r.isIndexEnabled() {
		stored := *e
		if err := r.index.Add(&stored); err != nil {
			fmt.Printf("Warning: enrollment %d not added to index: %v\n", e.ID, err)
		}
	}
	return nil
}

// DeleteEnrollments removes every enrollment of identity.
func (r *EnrollmentRepository) DeleteEnrollments(ctx context.Context, identity string) (int64, error) {
	rows, err := r.pool.Query(ctx, "DELETE FROM face_enrollments WHERE identity = $1 RETURNING id", identity)
	if err != nil {
		return 0, fmt.Errorf("delete enrollments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan deleted enrollment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate deleted enrollments: %w", err)
	}

	if r.isIndexEnabled() {
		for _, id := range ids {
			r.index.Delete(id)
		}
	}
	return int64(len(ids)), nil
}

// FindSimilar finds the k enrollments nearest to embedding by Euclidean distance.
// Uses the in-memory HNSW index if enabled, otherwise falls back to PostgreSQL.
func (r *EnrollmentRepository) FindSimilar(
	ctx context.Context, embedding []float32, k int,
) ([]database.StoredEnrollment, []float64, error) {
	if r.isIndexEnabled() {
		results, distances, err := r.index.Search(embedding, k)
		if err != nil {
			return nil, nil, fmt.Errorf("HNSW search: %w", err)
		}
		return results, distances, nil
	}
	return r.findSimilarPostgres(ctx, embedding, k)
}

// findSimilarPostgres uses pgvector's L2 distance operator.
func (r *EnrollmentRepository) findSimilarPostgres(
	ctx context.Context, embedding []float32, k int,
) ([]database.StoredEnrollment, []float64, error) {
	query := `
		SELECT id, identity, embedding, encoder, meta, created_at, embedding <-> $1::vector AS distance
		FROM face_enrollments
		ORDER BY distance, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar enrollments: %w", err)
	}
	defer rows.Close()

	var results []database.StoredEnrollment
	var distances []float64
	for rows.Next() {
		var dist float64
		e, err := scanEnrollmentRow(rows, &dist)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, e)
		distances = append(distances, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate similar enrollments: %w", err)
	}
	return results, distances, nil
}

// scanEnrollmentRow scans a single row into a StoredEnrollment, with optional extra scan
// destinations appended after the standard columns (e.g., a distance column).
func scanEnrollmentRow(scanner interface{ Scan(...any) error }, extraDest ...any) (database.StoredEnrollment, error) {
	var e database.StoredEnrollment
	var vec pgvector.Vector
	var meta []byte

	dest := make([]any, 0, 6+len(extraDest))
	dest = append(dest, &e.ID, &e.Identity, &vec, &e.Encoder, &meta, &e.CreatedAt)
	dest = append(dest, extraDest...)

	if err := scanner.Scan(dest...); err != nil {
		return e, fmt.Errorf("scan enrollment: %w", err)
	}

	e.Embedding = vec.Slice()
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Meta); err != nil {
			return e, fmt.Errorf("decode enrollment %d metadata: %w", e.ID, err)
		}
	}
	return e, nil
}

func (r *EnrollmentRepository) isIndexEnabled() bool {
	r.indexMu.RLock()
	defer r.indexMu.RUnlock()
	return r.indexEnabled && r.index != nil
}

// tryLoadIndex attempts to load the HNSW index from disk.
// Returns true if the cached index matches the database and was loaded.
func (r *EnrollmentRepository) tryLoadIndex(indexPath string, dbCount, dbMaxID int64) bool {
	metadata, err := database.LoadIndexMetadata(indexPath)
	if err != nil {
		fmt.Printf("Enrollment index: metadata file error: %v (will rebuild)\n", err)
		return false
	}
	if metadata.EnrollmentCount != dbCount || metadata.MaxEnrollmentID != dbMaxID {
		fmt.Printf("Enrollment index: stale (db: count=%d max_id=%d, cached: count=%d max_id=%d) (will rebuild)\n",
			dbCount, dbMaxID, metadata.EnrollmentCount, metadata.MaxEnrollmentID)
		return false
	}

	index := database.NewEnrollmentIndex()
	if err := index.LoadWithMetadata(indexPath); err != nil {
		fmt.Printf("Enrollment index: failed to load: %v (will rebuild)\n", err)
		return false
	}
	if index.IsEmpty() {
		fmt.Printf("Enrollment index: loaded graph is empty (will rebuild)\n")
		return false
	}
	r.index = index
	fmt.Printf("Enrollment index: loaded from disk (fresh)\n")
	return true
}

// EnableIndex loads or builds the in-memory HNSW index.
func (r *EnrollmentRepository) EnableIndex(ctx context.Context, indexPath string) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()

	r.indexPath = indexPath

	dbCount, dbMaxID, err := r.stats(ctx)
	if err != nil {
		return err
	}

	if indexPath != "" && r.tryLoadIndex(indexPath, dbCount, dbMaxID) {
		r.indexEnabled = true
		return nil
	}

	enrollments, err := r.ListEnrollments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}

	r.index = database.NewEnrollmentIndex()
	r.index.Build(enrollments)

	if indexPath != "" && len(enrollments) > 0 {
		if err := r.index.Save(indexPath); err != nil {
			fmt.Printf("Warning: failed to save enrollment index to disk: %v\n", err)
		}
	}

	r.indexEnabled = true
	return nil
}

func (r *EnrollmentRepository) stats(ctx context.Context) (count, maxID int64, err error) {
	err = r.pool.QueryRow(ctx, "SELECT COUNT(*), COALESCE(MAX(id), 0) FROM face_enrollments").Scan(&count, &maxID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get enrollment stats: %w", err)
	}
	return count, maxID, nil
}

// DisableIndex turns off the HNSW index; similar search falls back to PostgreSQL.
func (r *EnrollmentRepository) DisableIndex() {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()
	r.indexEnabled = false
	r.index = nil
}

// RebuildIndex implements database.IndexRebuilder.
func (r *EnrollmentRepository) RebuildIndex(ctx context.Context) error {
	r.indexMu.RLock()
	indexPath := r.indexPath
	r.indexMu.RUnlock()
	return r.EnableIndex(ctx, indexPath)
}

// IsIndexEnabled implements database.IndexRebuilder.
func (r *EnrollmentRepository) IsIndexEnabled() bool {
	return r.isIndexEnabled()
}

// IndexCount implements database.IndexRebuilder.
func (r *EnrollmentRepository) IndexCount() int {
	r.indexMu.RLock()
	defer r.indexMu.RUnlock()
	if r.index == nil {
		return 0
	}
	return r.index.Count()
}

// SaveIndex implements database.IndexRebuilder.
func (r *EnrollmentRepository) SaveIndex() error {
	r.indexMu.RLock()
	defer r.indexMu.RUnlock()

	if r.index == nil || r.indexPath == "" {
		return nil
	}

	if err := r.index.Save(r.indexPath); err != nil {
		return fmt.Errorf("saving enrollment index: %w", err)
	}
	return nil
}
