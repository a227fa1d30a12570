package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Arjit20/Cine-Book/internal/domain/booking"
	"github.com/Arjit20/Cine-Book/internal/domain/transaction"
)

// uniqueViolation はPostgreSQLの一意制約違反コード
const uniqueViolation = "23505"

type bookingRow struct {
	TicketID      string         `db:"ticket_id"`
	ShowID        string         `db:"show_id"`
	ViewerID      string         `db:"viewer_id"`
	Seats         pq.StringArray `db:"seats"`
	Email         string         `db:"email"`
	Phone         string         `db:"phone"`
	TotalAmount   int            `db:"total_amount"`
	PaymentStatus string         `db:"payment_status"`
	CancelledAt   *time.Time     `db:"cancelled_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		TicketID: r.TicketID, ShowID: r.ShowID, ViewerID: r.ViewerID,
		Seats: []string(r.Seats), Email: r.Email, Phone: r.Phone,
		TotalAmount: r.TotalAmount, PaymentStatus: booking.PaymentStatus(r.PaymentStatus),
		CancelledAt: r.CancelledAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository { return &BookingRepository{db: db} }

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	query := `INSERT INTO bookings (ticket_id, show_id, viewer_id, seats, email, phone, total_amount, payment_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := UnwrapTx(tx).ExecContext(ctx, query,
		b.TicketID, b.ShowID, b.ViewerID, pq.Array(b.Seats),
		b.Email, b.Phone, b.TotalAmount, string(b.PaymentStatus),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return booking.ErrTicketIDConflict
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByTicketID(ctx context.Context, ticketID string) (*booking.Booking, error) {
	query := `SELECT ticket_id, show_id, viewer_id, seats, email, phone, total_amount, payment_status, cancelled_at, created_at, updated_at
	          FROM bookings WHERE ticket_id = $1`
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, ticketID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) GetByViewerID(ctx context.Context, viewerID string, limit, offset int) ([]*booking.Booking, error) {
	query := `SELECT ticket_id, show_id, viewer_id, seats, email, phone, total_amount, payment_status, cancelled_at, created_at, updated_at
	          FROM bookings WHERE viewer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, viewerID, limit, offset); err != nil {
		return nil, err
	}
	bookings := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		bookings[i] = row.toEntity()
	}
	return bookings, nil
}

func (r *BookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	query := `UPDATE bookings SET payment_status = $1, cancelled_at = $2, updated_at = $3 WHERE ticket_id = $4`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, string(b.PaymentStatus), b.CancelledAt, b.UpdatedAt, b.TicketID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

var _ booking.Repository = (*BookingRepository)(nil)
