package notification

import (
	"context"

	"github.com/Arjit20/Cine-Book/internal/domain/booking"
)

// Notifier は予約確定通知の配送インターフェース
// 配送は best-effort であり、失敗しても予約がロールバックされることはない
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *booking.Booking) error
}

// NopNotifier は何もしない Notifier 実装
// 通知キューが設定されていない環境で使う
type NopNotifier struct{}

func (NopNotifier) BookingConfirmed(ctx context.Context, b *booking.Booking) error {
	return nil
}

var _ Notifier = NopNotifier{}
