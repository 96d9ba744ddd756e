package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/servicehub/internal/database"
)

// BookingRepository provides PostgreSQL-backed storage for bookings, reviews and transactions
type BookingRepository struct {
	pool *Pool
}

// NewBookingRepository creates a new PostgreSQL booking repository
func NewBookingRepository(pool *Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateBooking stores a new booking
func (r *BookingRepository) CreateBooking(ctx context.Context, b *database.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, provider_id, service_id, scheduled_at, address, notes,
		                      status, payment_status, amount, currency, service_title, service_category,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		b.ID,
		b.UserID,
		b.ProviderID,
		b.ServiceID,
		b.ScheduledAt,
		b.Address,
		b.Notes,
		b.Status,
		b.PaymentStatus,
		b.Amount,
		b.Currency,
		b.ServiceTitle,
		b.ServiceCategory,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetBooking retrieves a booking by ID, returns nil if not found
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (*database.Booking, error) {
	query := `
		SELECT id, user_id, provider_id, service_id, scheduled_at, address, notes,
		       status, payment_status, amount, currency, service_title, service_category,
		       created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var b database.Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.UserID,
		&b.ProviderID,
		&b.ServiceID,
		&b.ScheduledAt,
		&b.Address,
		&b.Notes,
		&b.Status,
		&b.PaymentStatus,
		&b.Amount,
		&b.Currency,
		&b.ServiceTitle,
		&b.ServiceCategory,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

// CreateReview stores a review
func (r *BookingRepository) CreateReview(ctx context.Context, review *database.Review) error {
	query := `
		INSERT INTO reviews (id, booking_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, review.ID, review.BookingID, review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// CreateTransaction stores a payment intent
func (r *BookingRepository) CreateTransaction(ctx context.Context, tx *database.Transaction) error {
	query := `
		INSERT INTO transactions (id, booking_id, amount, currency, status, payment_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query, tx.ID, tx.BookingID, tx.Amount, tx.Currency, tx.Status, tx.PaymentURL, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
