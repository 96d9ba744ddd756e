package database

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/servicehub/internal/facematch"
)

// EnrollmentIndex wraps an HNSW graph for nearest-identity search over enrolled embeddings.
// It serves diagnostic similarity queries; authoritative matching is the linear scan in
// facematch.Match, which the approximate graph cannot replace.
type EnrollmentIndex struct {
	graph *hnsw.Graph[int64]
	byID  map[int64]*StoredEnrollment // Maps HNSW node ID to enrollment
	dim   int                         // embedding length accepted by the graph, 0 until first add
	mu    sync.RWMutex
	// saveMu serializes writers of the index files
	saveMu sync.Mutex
}

// NewEnrollmentIndex creates a new empty index.
func NewEnrollmentIndex() *EnrollmentIndex {
	return &EnrollmentIndex{
		byID: make(map[int64]*StoredEnrollment),
	}
}

func newEuclideanGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with enrollments.
// Enrollments with an empty embedding, or one whose length differs from the first
// indexed embedding, are left out.
func (x *EnrollmentIndex) Build(enrollments []StoredEnrollment) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.graph = nil
	x.dim = 0
	x.byID = make(map[int64]*StoredEnrollment, len(enrollments))

	for i := range enrollments {
		_ = x.addLocked(&enrollments[i])
	}
}

// Add adds a single enrollment to the index.
func (x *EnrollmentIndex) Add(e *StoredEnrollment) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.addLocked(e)
}

func (x *EnrollmentIndex) addLocked(e *StoredEnrollment) error {
	if len(e.Embedding) == 0 {
		return nil
	}
	if x.dim != 0 && len(e.Embedding) != x.dim {
		return fmt.Errorf("%w: index holds %d, enrollment %d has %d",
			facematch.ErrDimensionMismatch, x.dim, e.ID, len(e.Embedding))
	}

	if x.graph == nil {
		x.graph = newEuclideanGraph()
	}
	x.graph.Add(hnsw.MakeNode(e.ID, e.Embedding))
	x.dim = len(e.Embedding)
	x.byID[e.ID] = e
	return nil
}

// Delete removes an enrollment from search results.
func (x *EnrollmentIndex) Delete(id int64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.byID, id)
	// Note: the graph node stays, removing it from byID filters it out of search results.
}

// Search finds up to k enrollments nearest to query, closest first.
// Distances are exact Euclidean distances recomputed from the stored embeddings.
func (x *EnrollmentIndex) Search(query []float32, k int) ([]StoredEnrollment, []float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || x.graph == nil || len(x.byID) == 0 {
		return nil, nil, nil
	}
	if len(query) != x.dim {
		return nil, nil, fmt.Errorf("%w: index holds %d, query has %d", facematch.ErrDimensionMismatch, x.dim, len(query))
	}

	neighbors := x.graph.Search(query, k*HNSWSearchMultiplier)

	type hit struct {
		enrollment StoredEnrollment
		distance   float64
	}
	hits := make([]hit, 0, len(neighbors))
	for _, n := range neighbors {
		e, ok := x.byID[n.Key]
		if !ok {
			continue
		}
		d, err := facematch.EuclideanDistance(query, e.Embedding)
		if err != nil {
			continue
		}
		hits = append(hits, hit{enrollment: *e, distance: d})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].enrollment.ID < hits[j].enrollment.ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	results := make([]StoredEnrollment, len(hits))
	distances := make([]float64, len(hits))
	for i, h := range hits {
		results[i] = h.enrollment
		distances[i] = h.distance
	}
	return results, distances, nil
}

// Get returns the enrollment for a given ID.
func (x *EnrollmentIndex) Get(id int64) *StoredEnrollment {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.byID[id]
}

// Count returns the number of indexed enrollments.
func (x *EnrollmentIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID)
}

// IsEmpty returns true if the index has no graph data loaded.
func (x *EnrollmentIndex) IsEmpty() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.graph == nil
}

// persistedEnrollment is the on-disk form of an enrollment; metadata is kept as
// JSON because gob cannot encode arbitrary interface values.
type persistedEnrollment struct {
	ID        int64
	Identity  string
	Embedding []float32
	Encoder   string
	Meta      []byte
	CreatedAt time.Time
}

// Metadata describes the indexed enrollments: their count and highest ID.
func (x *EnrollmentIndex) Metadata() IndexMetadata {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.metadataLocked()
}

func (x *EnrollmentIndex) metadataLocked() IndexMetadata {
	metadata := IndexMetadata{EnrollmentCount: int64(len(x.byID))}
	for id := range x.byID {
		if id > metadata.MaxEnrollmentID {
			metadata.MaxEnrollmentID = id
		}
	}
	return metadata
}

// Save persists the graph to path, metadata to path.meta and the enrollments to
// path.enrollments. The metadata is taken from the same snapshot as the graph, so a
// file saved while enrollments are still being added never claims rows it lacks.
// Concurrent saves run one at a time.
func (x *EnrollmentIndex) Save(path string) error {
	x.saveMu.Lock()
	defer x.saveMu.Unlock()

	x.mu.RLock()
	defer x.mu.RUnlock()

	metadata := x.metadataLocked()

	if x.graph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		_ = os.Remove(path + ".enrollments")
		return nil
	}

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := x.graph.Export(w); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close index file: %w", err)
	}

	metadata.Version = indexMetadataVersion
	if metadata.BuildTime.IsZero() {
		metadata.BuildTime = time.Now()
	}
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	persisted := make([]persistedEnrollment, 0, len(x.byID))
	for _, e := range x.byID {
		p := persistedEnrollment{
			ID:        e.ID,
			Identity:  e.Identity,
			Embedding: e.Embedding,
			Encoder:   e.Encoder,
			CreatedAt: e.CreatedAt,
		}
		if len(e.Meta) > 0 {
			if p.Meta, err = json.Marshal(e.Meta); err != nil {
				return fmt.Errorf("failed to marshal enrollment %d metadata: %w", e.ID, err)
			}
		}
		persisted = append(persisted, p)
	}
	sort.Slice(persisted, func(i, j int) bool { return persisted[i].ID < persisted[j].ID })

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(persisted); err != nil {
		return fmt.Errorf("failed to encode enrollments: %w", err)
	}
	if err := os.WriteFile(path+".enrollments", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write enrollments file: %w", err)
	}

	return nil
}

// LoadIndexMetadata loads metadata from a separate .meta file.
func LoadIndexMetadata(path string) (IndexMetadata, error) {
	var metadata IndexMetadata

	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// LoadWithMetadata loads both the HNSW graph and the enrollments from disk.
func (x *EnrollmentIndex) LoadWithMetadata(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("index file not found: %s", path)
		}
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	g := newEuclideanGraph()
	if err := g.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("failed to import HNSW graph: %w", err)
	}

	data, err := os.ReadFile(path + ".enrollments") //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to read enrollments file: %w", err)
	}
	var persisted []persistedEnrollment
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&persisted); err != nil {
		return fmt.Errorf("failed to decode enrollments: %w", err)
	}

	byID := make(map[int64]*StoredEnrollment, len(persisted))
	dim := 0
	for _, p := range persisted {
		e := &StoredEnrollment{
			ID:        p.ID,
			Identity:  p.Identity,
			Embedding: p.Embedding,
			Encoder:   p.Encoder,
			CreatedAt: p.CreatedAt,
		}
		if len(p.Meta) > 0 {
			if err := json.Unmarshal(p.Meta, &e.Meta); err != nil {
				return fmt.Errorf("failed to decode enrollment %d metadata: %w", p.ID, err)
			}
		}
		byID[e.ID] = e
		dim = len(e.Embedding)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.graph = g
	x.byID = byID
	x.dim = dim
	return nil
}
