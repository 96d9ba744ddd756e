package database

import (
	"context"
)

// UserReader provides read-only access to user accounts
type UserReader interface {
	// GetUser retrieves a user by ID, returns nil if not found
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUserByEmail retrieves the first user registered with email, returns nil if not found
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// UserWriter provides write access to user accounts
type UserWriter interface {
	UserReader

	// CreateUser stores a new user
	CreateUser(ctx context.Context, user *User) error
}

// CatalogReader provides read-only access to providers and their services
type CatalogReader interface {
	// ListServices returns services passing the filter, in insertion order
	ListServices(ctx context.Context, filter ServiceFilter) ([]Service, error)
	// GetService retrieves a service by ID, returns nil if not found
	GetService(ctx context.Context, id string) (*Service, error)
	// ListProviders returns providers passing the filter, in insertion order
	ListProviders(ctx context.Context, filter ProviderFilter) ([]Provider, error)
}

// CatalogWriter provides write access to the catalog
type CatalogWriter interface {
	CatalogReader

	// SaveProvider inserts or replaces a provider
	SaveProvider(ctx context.Context, provider *Provider) error
	// SaveService inserts or replaces a service
	SaveService(ctx context.Context, service *Service) error
}

// BookingWriter provides access to bookings and the records attached to them
type BookingWriter interface {
	// CreateBooking stores a new booking
	CreateBooking(ctx context.Context, booking *Booking) error
	// GetBooking retrieves a booking by ID, returns nil if not found
	GetBooking(ctx context.Context, id string) (*Booking, error)
	// CreateReview stores a review
	CreateReview(ctx context.Context, review *Review) error
	// CreateTransaction stores a payment intent
	CreateTransaction(ctx context.Context, tx *Transaction) error
}

// EnrollmentReader provides read-only access to enrolled face embeddings
type EnrollmentReader interface {
	// ListEnrollments returns every enrollment in enrollment order.
	// The order is significant: facematch.Match resolves ties to the earliest record.
	ListEnrollments(ctx context.Context) ([]StoredEnrollment, error)
	// Count returns the total number of enrollments stored
	Count(ctx context.Context) (int, error)
	// FindSimilar finds the k enrollments nearest to embedding by Euclidean distance
	FindSimilar(ctx context.Context, embedding []float32, k int) ([]StoredEnrollment, []float64, error)
}

// EnrollmentWriter provides write access to enrolled face embeddings
type EnrollmentWriter interface {
	EnrollmentReader

	// SaveEnrollment stores an enrollment and assigns its ID
	SaveEnrollment(ctx context.Context, enrollment *StoredEnrollment) error
	// DeleteEnrollments removes every enrollment of identity and returns how many were removed
	DeleteEnrollments(ctx context.Context, identity string) (int64, error)
}

// AttendanceWriter provides write access to attendance records
type AttendanceWriter interface {
	// MarkAttendance stores an attendance record
	MarkAttendance(ctx context.Context, record *Attendance) error
	// ListAttendance returns a user's attendance records, newest first
	ListAttendance(ctx context.Context, userID string) ([]Attendance, error)
}
