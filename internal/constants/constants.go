// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultSimilarLimit is the default number of neighbours returned by the
	// diagnostic similar-identity search
	DefaultSimilarLimit = 5

	// MaxSimilarLimit caps the similar-identity search size
	MaxSimilarLimit = 50

	// DefaultAttendanceMethod is recorded when a client does not say how attendance was taken
	DefaultAttendanceMethod = "face"
)

// Processing constants
const (
	// WorkerPoolSize is the default number of parallel workers for batch enrollment
	WorkerPoolSize = 4

	// IndexSaveInterval is the number of enrollments processed before the HNSW index is saved
	IndexSaveInterval = 50
)

// Booking defaults, applied when the booked service lacks the field
const (
	DefaultBookingAmount   = 999
	DefaultCurrency        = "INR"
	DefaultServiceTitle    = "Unknown Service"
	DefaultServiceCategory = "General"

	BookingStatusPending = "pending"
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusCreated = "created"
)

// Recommendation constants
const (
	// MaxRecommendedCategories is the number of categories suggested for a request
	MaxRecommendedCategories = 3

	// MaxRecommendedProviders is the number of providers suggested for a request
	MaxRecommendedProviders = 3
)
