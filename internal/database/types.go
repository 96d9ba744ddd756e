package database

import (
	"strings"
	"time"

	"github.com/kozaktomas/servicehub/internal/facematch"
)

// User is a registered customer or provider account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Provider offers services in one or more categories.
type Provider struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Categories []string  `json:"categories"`
	Rating     float64   `json:"rating"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasCategory reports whether the provider lists category, ignoring case.
func (p *Provider) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// Service is a bookable offering of a provider.
type Service struct {
	ID          string   `json:"id"`
	ProviderID  string   `json:"provider_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price,omitempty"` // nil when the provider has not set a price
	Currency    string   `json:"currency,omitempty"`
}

// Booking is a customer's reservation of a service.
type Booking struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ProviderID      string    `json:"provider_id"`
	ServiceID       string    `json:"service_id"`
	ScheduledAt     time.Time `json:"datetime"`
	Address         string    `json:"address"`
	Notes           string    `json:"notes"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	ServiceTitle    string    `json:"service_title"`
	ServiceCategory string    `json:"service_category"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Review is a customer's rating of a completed booking.
type Review struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is a payment intent created for a booking.
type Transaction struct {
	ID         string    `json:"payment_id"`
	BookingID  string    `json:"booking_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	PaymentURL string    `json:"payment_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// StoredEnrollment is a face embedding enrolled for an identity.
type StoredEnrollment struct {
	ID        int64          `json:"id"`
	Identity  string         `json:"user_id"`
	Embedding []float32      `json:"embedding"`
	Encoder   string         `json:"encoder"` // facematch.EncoderKind that produced the embedding
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Record converts the stored enrollment into the form used by facematch.Match.
func (e *StoredEnrollment) Record() facematch.EnrollmentRecord {
	return facematch.EnrollmentRecord{
		Identity:  e.Identity,
		Embedding: facematch.Embedding(e.Embedding),
		Meta:      e.Meta,
	}
}

// EnrollmentRecords converts the enrollments produced by encoder kind, preserving
// their order. Embeddings from another extraction path (or with no recorded encoder)
// live in a different space and are left out.
func EnrollmentRecords(enrollments []StoredEnrollment, kind facematch.EncoderKind) []facematch.EnrollmentRecord {
	records := make([]facematch.EnrollmentRecord, 0, len(enrollments))
	for i := range enrollments {
		if enrollments[i].Encoder != string(kind) {
			continue
		}
		records = append(records, enrollments[i].Record())
	}
	return records
}

// Attendance records that a user was present for a booking.
type Attendance struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookingID string    `json:"booking_id"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

// ServiceFilter selects services. Empty fields do not filter.
type ServiceFilter struct {
	Query      string // case-insensitive substring of title or description
	Category   string // exact category
	ProviderID string
}

// Matches reports whether s passes the filter.
func (f ServiceFilter) Matches(s *Service) bool {
	if q := strings.ToLower(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(s.Title), q) && !strings.Contains(strings.ToLower(s.Description), q) {
			return false
		}
	}
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.ProviderID != "" && s.ProviderID != f.ProviderID {
		return false
	}
	return true
}

// ProviderFilter selects providers. Empty fields do not filter.
type ProviderFilter struct {
	Category string // provider must list this exact category
	Verified *bool
}

// Matches reports whether p passes the filter.
func (f ProviderFilter) Matches(p *Provider) bool {
	if f.Category != "" {
		found := false
		for _, c := range p.Categories {
			if c == f.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Verified != nil && p.Verified != *f.Verified {
		return false
	}
	return true
}

// IndexMetadata stores metadata for validating a cached enrollment index.
type IndexMetadata struct {
	EnrollmentCount int64     `json:"enrollment_count"`
	MaxEnrollmentID int64     `json:"max_enrollment_id"`
	BuildTime       time.Time `json:"build_time"`
	Version         int       `json:"version"` // For future compatibility
}
