package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus は支払いの状態を表す
// 支払い処理自体は外部コラボレーターであり、本コアは状態遷移を記録するのみ
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking は確定済み予約エンティティを表す
// 座席はキャンセル以外の経路で Booked から戻ることはない
type Booking struct {
	TicketID      string
	ShowID        string
	ViewerID      string
	Seats         []string
	Email         string
	Phone         string
	TotalAmount   int
	PaymentStatus PaymentStatus
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBooking は新しい予約を作成し、チケットIDを採番する
func NewBooking(showID, viewerID string, seats []string, email, phone string, totalAmount int) *Booking {
	now := time.Now()
	return &Booking{
		TicketID:      NewTicketID(),
		ShowID:        showID,
		ViewerID:      viewerID,
		Seats:         seats,
		Email:         email,
		Phone:         phone,
		TotalAmount:   totalAmount,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTicketID はグローバルに一意なチケットIDを採番する
// 形式: TKT-XXXXXXXXXXXX（UUID由来の12桁）
// 衝突はユニーク制約で検出され、致命的エラーとして扱う
func NewTicketID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TKT-" + strings.ToUpper(raw[:12])
}

// IsCancelled は予約がキャンセル済みかを返す
func (b *Booking) IsCancelled() bool {
	return b.CancelledAt != nil
}

// MarkPaid は支払い完了を記録する
func (b *Booking) MarkPaid() error {
	if b.IsCancelled() {
		return ErrBookingCancelled
	}
	b.PaymentStatus = PaymentPaid
	b.UpdatedAt = time.Now()
	return nil
}

// MarkFailed は支払い失敗を記録する
func (b *Booking) MarkFailed() error {
	if b.IsCancelled() {
		return ErrBookingCancelled
	}
	b.PaymentStatus = PaymentFailed
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする
// 座席の解放は同一トランザクションで行われなければならない
func (b *Booking) Cancel() error {
	if b.IsCancelled() {
		return ErrBookingAlreadyCancelled
	}
	if b.PaymentStatus == PaymentPaid {
		return ErrBookingAlreadyPaid
	}
	now := time.Now()
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.ShowID == "" {
		return ErrShowIDRequired
	}
	if b.ViewerID == "" {
		return ErrViewerIDRequired
	}
	if len(b.Seats) == 0 {
		return ErrSeatsRequired
	}
	if b.Email == "" {
		return ErrEmailRequired
	}
	if b.TotalAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
