package handler

import (
	"context"

	"github.com/Arjit20/Cine-Book/internal/application"
	"github.com/Arjit20/Cine-Book/internal/domain/booking"
	"github.com/Arjit20/Cine-Book/internal/domain/hold"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
)

// ShowServiceInterface は上映回サービスのインターフェース
type ShowServiceInterface interface {
	CreateShow(ctx context.Context, input application.CreateShowInput) (*show.Show, error)
	GetShow(ctx context.Context, id string) (*show.Show, error)
	ListShows(ctx context.Context, limit, offset int) ([]*show.Show, error)
	SeatMap(ctx context.Context, showID string) ([]show.SeatState, error)
	CountAvailable(ctx context.Context, showID string) (int, error)
}

// HoldServiceInterface は保留サービスのインターフェース
type HoldServiceInterface interface {
	RequestHold(ctx context.Context, input application.RequestHoldInput) (*hold.Hold, error)
	Release(ctx context.Context, showID, viewerID string, seats []string)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, ticketID string) (*booking.Booking, error)
	GetViewerBookings(ctx context.Context, viewerID string, limit, offset int) ([]*booking.Booking, error)
	CancelBooking(ctx context.Context, ticketID string) (*booking.Booking, error)
	RecordPaymentResult(ctx context.Context, ticketID string, paid bool) (*booking.Booking, error)
}
