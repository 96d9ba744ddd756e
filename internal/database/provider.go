package database

import (
	"context"
	"errors"
	"fmt"
)

// IndexRebuilder is an interface for repositories that keep an in-memory enrollment index
type IndexRebuilder interface {
	// RebuildIndex rebuilds the in-memory HNSW index from the database
	RebuildIndex(ctx context.Context) error
	// IndexCount returns the number of enrollments in the HNSW index
	IndexCount() int
	// IsIndexEnabled returns whether the HNSW index is in use
	IsIndexEnabled() bool
	// SaveIndex saves the current index to disk (if path configured)
	SaveIndex() error
}

var (
	postgresUserWriter       func() UserWriter
	postgresCatalogWriter    func() CatalogWriter
	postgresBookingWriter    func() BookingWriter
	postgresEnrollmentWriter func() EnrollmentWriter
	postgresAttendanceWriter func() AttendanceWriter
	postgresEnrollmentIndex  IndexRebuilder // Singleton for enrollment index rebuilding
	postgresInitialized      bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(
	users func() UserWriter,
	catalog func() CatalogWriter,
	bookings func() BookingWriter,
	enrollments func() EnrollmentWriter,
	attendance func() AttendanceWriter,
) {
	postgresUserWriter = users
	postgresCatalogWriter = catalog
	postgresBookingWriter = bookings
	postgresEnrollmentWriter = enrollments
	postgresAttendanceWriter = attendance
	postgresInitialized = true
}

// RegisterEnrollmentIndexRebuilder registers the index rebuilder for the enrollment repository.
// This allows rebuilding the in-memory HNSW index without knowing the concrete type.
func RegisterEnrollmentIndexRebuilder(rebuilder IndexRebuilder) {
	postgresEnrollmentIndex = rebuilder
}

// GetEnrollmentIndexRebuilder returns the registered index rebuilder, or nil if not registered.
func GetEnrollmentIndexRebuilder() IndexRebuilder {
	return postgresEnrollmentIndex
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	return postgresInitialized
}

var errNotInitialized = errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")

// GetUserWriter returns a UserWriter from the PostgreSQL backend
func GetUserWriter(ctx context.Context) (UserWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresUserWriter == nil {
		return nil, fmt.Errorf("PostgreSQL user writer not registered")
	}
	return postgresUserWriter(), nil
}

// GetCatalogWriter returns a CatalogWriter from the PostgreSQL backend
func GetCatalogWriter(ctx context.Context) (CatalogWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresCatalogWriter == nil {
		return nil, fmt.Errorf("PostgreSQL catalog writer not registered")
	}
	return postgresCatalogWriter(), nil
}

// GetCatalogReader returns a CatalogReader from the PostgreSQL backend
func GetCatalogReader(ctx context.Context) (CatalogReader, error) {
	w, err := GetCatalogWriter(ctx)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetBookingWriter returns a BookingWriter from the PostgreSQL backend
func GetBookingWriter(ctx context.Context) (BookingWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresBookingWriter == nil {
		return nil, fmt.Errorf("PostgreSQL booking writer not registered")
	}
	return postgresBookingWriter(), nil
}

// GetEnrollmentWriter returns an EnrollmentWriter from the PostgreSQL backend
func GetEnrollmentWriter(ctx context.Context) (EnrollmentWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresEnrollmentWriter == nil {
		return nil, fmt.Errorf("PostgreSQL enrollment writer not registered")
	}
	return postgresEnrollmentWriter(), nil
}

// GetEnrollmentReader returns an EnrollmentReader from the PostgreSQL backend
func GetEnrollmentReader(ctx context.Context) (EnrollmentReader, error) {
	w, err := GetEnrollmentWriter(ctx)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetAttendanceWriter returns an AttendanceWriter from the PostgreSQL backend
func GetAttendanceWriter(ctx context.Context) (AttendanceWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresAttendanceWriter == nil {
		return nil, fmt.Errorf("PostgreSQL attendance writer not registered")
	}
	return postgresAttendanceWriter(), nil
}
