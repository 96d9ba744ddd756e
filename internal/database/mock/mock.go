// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

// MockUserStore is a mock implementation of database.UserWriter
type MockUserStore struct {
	mu    sync.RWMutex
	users []database.User

	// Error injection
	GetError    error
	CreateError error
}

// NewMockUserStore creates a new mock user store
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{}
}

// AddUser adds a user to the mock store
func (m *MockUserStore) AddUser(user database.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, user)
}

// Users returns a copy of every stored user
func (m *MockUserStore) Users() []database.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.User(nil), m.users...)
}

// GetUser retrieves a user by ID
func (m *MockUserStore) GetUser(ctx context.Context, id string) (*database.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// GetUserByEmail retrieves the first user registered with email
func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// CreateUser stores a new user
func (m *MockUserStore) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddUser(*user)
	return nil
}

// MockCatalog is a mock implementation of database.CatalogWriter
type MockCatalog struct {
	mu        sync.RWMutex
	providers []database.Provider
	services  []database.Service

	// Error injection
	ListServicesError  error
	GetServiceError    error
	ListProvidersError error
	SaveError          error
}

// NewMockCatalog creates a new mock catalog
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{}
}

// AddProvider adds a provider to the mock catalog
func (m *MockCatalog) AddProvider(p database.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.providers {
		if m.providers[i].ID == p.ID {
			m.providers[i] = p
			return
		}
	}
	m.providers = append(m.providers, p)
}

// AddService adds a service to the mock catalog
func (m *MockCatalog) AddService(s database.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.services {
		if m.services[i].ID == s.ID {
			m.services[i] = s
			return
		}
	}
	m.services = append(m.services, s)
}

// ListServices returns services passing the filter
func (m *MockCatalog) ListServices(ctx context.Context, filter database.ServiceFilter) ([]database.Service, error) {
	if m.ListServicesError != nil {
		return nil, m.ListServicesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := []database.Service{}
	for i := range m.services {
		if filter.Matches(&m.services[i]) {
			results = append(results, m.services[i])
		}
	}
	return results, nil
}

// GetService retrieves a service by ID
func (m *MockCatalog) GetService(ctx context.Context, id string) (*database.Service, error) {
	if m.GetServiceError != nil {
		return nil, m.GetServiceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.services {
		if m.services[i].ID == id {
			s := m.services[i]
			return &s, nil
		}
	}
	return nil, nil
}

// ListProviders returns providers passing the filter
func (m *MockCatalog) ListProviders(ctx context.Context, filter database.ProviderFilter) ([]database.Provider, error) {
	if m.ListProvidersError != nil {
		return nil, m.ListProvidersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := []database.Provider{}
	for i := range m.providers {
		if filter.Matches(&m.providers[i]) {
			results = append(results, m.providers[i])
		}
	}
	return results, nil
}

// SaveProvider inserts or replaces a provider
func (m *MockCatalog) SaveProvider(ctx context.Context, p *database.Provider) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.AddProvider(*p)
	return nil
}

// SaveService inserts or replaces a service
func (m *MockCatalog) SaveService(ctx context.Context, s *database.Service) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.AddService(*s)
	return nil
}

// MockBookings is a mock implementation of database.BookingWriter
type MockBookings struct {
	mu           sync.RWMutex
	bookings     map[string]*database.Booking
	reviews      []database.Review
	transactions []database.Transaction

	// Error injection
	CreateBookingError     error
	GetBookingError        error
	CreateReviewError      error
	CreateTransactionError error
}

// NewMockBookings creates a new mock booking store
func NewMockBookings() *MockBookings {
	return &MockBookings{
		bookings: make(map[string]*database.Booking),
	}
}

// CreateBooking stores a new booking
func (m *MockBookings) CreateBooking(ctx context.Context, b *database.Booking) error {
	if m.CreateBookingError != nil {
		return m.CreateBookingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *b
	m.bookings[b.ID] = &stored
	return nil
}

// GetBooking retrieves a booking by ID
func (m *MockBookings) GetBooking(ctx context.Context, id string) (*database.Booking, error) {
	if m.GetBookingError != nil {
		return nil, m.GetBookingError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	result := *b
	return &result, nil
}

// CreateReview stores a review
func (m *MockBookings) CreateReview(ctx context.Context, review *database.Review) error {
	if m.CreateReviewError != nil {
		return m.CreateReviewError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, *review)
	return nil
}

// CreateTransaction stores a payment intent
func (m *MockBookings) CreateTransaction(ctx context.Context, tx *database.Transaction) error {
	if m.CreateTransactionError != nil {
		return m.CreateTransactionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, *tx)
	return nil
}

// Reviews returns a copy of every stored review
func (m *MockBookings) Reviews() []database.Review {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.Review(nil), m.reviews...)
}

// Transactions returns a copy of every stored transaction
func (m *MockBookings) Transactions() []database.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.Transaction(nil), m.transactions...)
}

// BookingCount returns the number of stored bookings
func (m *MockBookings) BookingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

// MockEnrollments is a mock implementation of database.EnrollmentWriter
type MockEnrollments struct {
	mu          sync.RWMutex
	enrollments []database.StoredEnrollment
	nextID      int64

	// Error injection
	ListError        error
	CountError       error
	FindSimilarError error
	SaveError        error
	DeleteError      error
}

// NewMockEnrollments creates a new mock enrollment store
func NewMockEnrollments() *MockEnrollments {
	return &MockEnrollments{nextID: 1}
}

// AddEnrollment adds an enrollment, assigning the next ID when none is set
func (m *MockEnrollments) AddEnrollment(e database.StoredEnrollment) database.StoredEnrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		e.ID = m.nextID
	}
	if e.ID >= m.nextID {
		m.nextID = e.ID + 1
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.enrollments = append(m.enrollments, e)
	return e
}

// ListEnrollments returns every enrollment in enrollment order
func (m *MockEnrollments) ListEnrollments(ctx context.Context) ([]database.StoredEnrollment, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.StoredEnrollment{}, m.enrollments...), nil
}

// Count returns the total number of enrollments
func (m *MockEnrollments) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.enrollments), nil
}

// FindSimilar returns the k nearest enrollments by exact Euclidean distance,
// ordered by distance and then ID. Enrollments of another dimension are skipped.
func (m *MockEnrollments) FindSimilar(ctx context.Context, embedding []float32, k int) ([]database.StoredEnrollment, []float64, error) {
	if m.FindSimilarError != nil {
		return nil, nil, m.FindSimilarError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type candidate struct {
		enrollment database.StoredEnrollment
		distance   float64
	}
	var candidates []candidate
	for _, e := range m.enrollments {
		d, err := facematch.EuclideanDistance(embedding, e.Embedding)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{e, d})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].enrollment.ID < candidates[j].enrollment.ID
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]database.StoredEnrollment, len(candidates))
	distances := make([]float64, len(candidates))
	for i, c := range candidates {
		results[i] = c.enrollment
		distances[i] = c.distance
	}
	return results, distances, nil
}

// SaveEnrollment stores an enrollment and assigns its ID
func (m *MockEnrollments) SaveEnrollment(ctx context.Context, e *database.StoredEnrollment) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	stored := m.AddEnrollment(*e)
	e.ID = stored.ID
	e.CreatedAt = stored.CreatedAt
	return nil
}

// DeleteEnrollments removes every enrollment of identity
func (m *MockEnrollments) DeleteEnrollments(ctx context.Context, identity string) (int64, error) {
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.enrollments[:0]
	var removed int64
	for _, e := range m.enrollments {
		if e.Identity == identity {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.enrollments = kept
	return removed, nil
}

// MockAttendance is a mock implementation of database.AttendanceWriter
type MockAttendance struct {
	mu      sync.RWMutex
	records []database.Attendance

	// Error injection
	MarkError error
	ListError error
}

// NewMockAttendance creates a new mock attendance store
func NewMockAttendance() *MockAttendance {
	return &MockAttendance{}
}

// MarkAttendance stores an attendance record
func (m *MockAttendance) MarkAttendance(ctx context.Context, record *database.Attendance) error {
	if m.MarkError != nil {
		return m.MarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

// ListAttendance returns a user's attendance records, newest first
func (m *MockAttendance) ListAttendance(ctx context.Context, userID string) ([]database.Attendance, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := []database.Attendance{}
	for _, r := range m.records {
		if r.UserID == userID {
			results = append(results, r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return results, nil
}

// Records returns a copy of every stored attendance record
func (m *MockAttendance) Records() []database.Attendance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.Attendance(nil), m.records...)
}

var (
	_ database.UserWriter       = (*MockUserStore)(nil)
	_ database.CatalogWriter    = (*MockCatalog)(nil)
	_ database.BookingWriter    = (*MockBookings)(nil)
	_ database.EnrollmentWriter = (*MockEnrollments)(nil)
	_ database.AttendanceWriter = (*MockAttendance)(nil)
)
