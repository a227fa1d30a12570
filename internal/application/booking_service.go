package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/domain/booking"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/domain/transaction"
	redislock "github.com/Arjit20/Cine-Book/internal/infrastructure/redis"
	"github.com/Arjit20/Cine-Book/internal/notification"
	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
	"github.com/Arjit20/Cine-Book/internal/pkg/metrics"
	"github.com/Arjit20/Cine-Book/internal/realtime"
)

// HoldReleaser は予約確定時に該当座席の保留を取り除くインターフェース
type HoldReleaser interface {
	ReleaseSeatsForBooking(showID string, seats []string)
}

// SeatCacheInvalidator は空席数キャッシュの無効化インターフェース
type SeatCacheInvalidator interface {
	Invalidate(ctx context.Context, showID string) error
}

// BookingService は座席の選択を恒久的な予約へアトミックに変換する
// 保留は前提条件ではない。他ビューワーの保留も確定を妨げない。
// 正しさは単一の条件付き更新（全席 available の場合のみ成功）が保証する
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	showRepo    show.Repository
	holds       HoldReleaser
	lockManager *redislock.LockManager
	publisher   realtime.Publisher
	notifier    notification.Notifier
	cache       SeatCacheInvalidator
}

func NewBookingService(
	txManager transaction.Manager,
	br booking.Repository,
	sr show.Repository,
	holds HoldReleaser,
	lm *redislock.LockManager,
	publisher realtime.Publisher,
	notifier notification.Notifier,
	cache SeatCacheInvalidator,
) *BookingService {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &BookingService{
		txManager:   txManager,
		bookingRepo: br,
		showRepo:    sr,
		holds:       holds,
		lockManager: lm,
		publisher:   publisher,
		notifier:    notifier,
		cache:       cache,
	}
}

type CreateBookingInput struct {
	ShowID   string
	ViewerID string
	Seats    []string
	Email    string
	Phone    string
}

// CreateBooking は予約を確定する
// 競合時は SeatUnavailableError に利用不能な座席リストを載せて返し、
// 呼び出し側は座席を選び直して再試行できる。部分適用は残さない
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	// 上映回確認
	sh, err := s.showRepo.GetByID(ctx, input.ShowID)
	if err != nil {
		return nil, fmt.Errorf("上映回取得に失敗: %w", err)
	}
	if !sh.IsBookingOpen() {
		return nil, show.ErrShowNotOpen
	}

	// 座席確認と金額計算
	seatRows, err := s.showRepo.GetSeats(ctx, input.ShowID)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	priceByLabel := make(map[string]int, len(seatRows))
	for _, row := range seatRows {
		priceByLabel[row.Label] = row.Price
	}
	var unknown []string
	var totalAmount int
	for _, label := range input.Seats {
		price, ok := priceByLabel[label]
		if !ok {
			unknown = append(unknown, label)
			continue
		}
		totalAmount += price
	}
	if len(unknown) > 0 {
		s.countBooking("conflict")
		return nil, show.NewSeatUnavailableError(unknown)
	}

	b := booking.NewBooking(input.ShowID, input.ViewerID, input.Seats, input.Email, input.Phone, totalAmount)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	// 分散ロックを取得（座席をソートしてデッドロックを防止）
	// ロックは競合時の無駄なトランザクションを減らす補助であり、
	// 取得失敗・未設定でも条件付き更新が正しさを守る
	if s.lockManager != nil {
		lockKey := s.buildSeatLockKey(input.ShowID, input.Seats)
		lockStart := time.Now()
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, 10*time.Second, 3, 100*time.Millisecond)
		if m := metrics.Get(); m != nil {
			status := "acquired"
			if err != nil {
				status = "failed"
			}
			m.DistributedLockDuration.WithLabelValues("acquire", status).Observe(time.Since(lockStart).Seconds())
		}
		if err != nil {
			if errors.Is(err, redislock.ErrLockNotAcquired) {
				s.countBooking("lock_failed")
				return nil, s.conflictError(ctx, input.ShowID, input.Seats)
			}
			s.countBooking("error")
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	// トランザクション: 予約レコード作成＋条件付き座席更新
	// どちらかが失敗すれば全体をロールバックし、座席の主張を残さない
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.countBooking("error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		if errors.Is(err, booking.ErrTicketIDConflict) {
			// 一意性保証の破綻は致命的。リトライせずそのまま上げる
			logger.Error("チケットID衝突を検出",
				zap.String("ticket_id", b.TicketID),
				zap.String("show_id", input.ShowID),
			)
			s.countBooking("error")
			return nil, err
		}
		s.countBooking("error")
		return nil, err
	}
	if err := s.showRepo.BookSeats(ctx, tx, input.ShowID, input.Seats, b.TicketID); err != nil {
		var unavailable *show.SeatUnavailableError
		if errors.As(err, &unavailable) {
			s.countBooking("conflict")
			return nil, s.conflictError(ctx, input.ShowID, input.Seats)
		}
		s.countBooking("error")
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.countBooking("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.afterCommit(ctx, b)
	s.countBooking("success")

	logger.Info("予約を確定",
		zap.String("ticket_id", b.TicketID),
		zap.String("show_id", b.ShowID),
		zap.Strings("seats", b.Seats),
		zap.Int("total_amount", b.TotalAmount),
	)
	return b, nil
}

// afterCommit はコミット後の後処理を行う
// 保留の除去・イベント配信・通知・キャッシュ無効化はいずれも予約を
// ロールバックさせない
func (s *BookingService) afterCommit(ctx context.Context, b *booking.Booking) {
	if s.holds != nil {
		s.holds.ReleaseSeatsForBooking(b.ShowID, b.Seats)
	}
	if s.publisher != nil {
		s.publisher.Publish(b.ShowID, realtime.Event{
			Type:   realtime.EventSeatsBooked,
			ShowID: b.ShowID,
			Seats:  b.Seats,
			At:     b.CreatedAt,
		})
		if m := metrics.Get(); m != nil {
			m.BroadcastEventsTotal.WithLabelValues(string(realtime.EventSeatsBooked)).Inc()
		}
	}
	if err := s.notifier.BookingConfirmed(ctx, b); err != nil {
		logger.Warn("予約確定通知に失敗（予約は維持される）",
			zap.String("ticket_id", b.TicketID),
			zap.Error(err),
		)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, b.ShowID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}

// conflictError は現時点で利用不能な座席を問い合わせて競合エラーを作る
func (s *BookingService) conflictError(ctx context.Context, showID string, seats []string) error {
	unavailable, err := s.showRepo.UnavailableSeats(ctx, showID, seats)
	if err != nil || len(unavailable) == 0 {
		// 取得できない場合は要求座席全体を競合として返す
		return show.NewSeatUnavailableError(seats)
	}
	return show.NewSeatUnavailableError(unavailable)
}

// buildSeatLockKey は座席ラベルからロックキーを生成（ソートしてデッドロック防止）
func (s *BookingService) buildSeatLockKey(showID string, seats []string) string {
	sorted := make([]string, len(seats))
	copy(sorted, seats)
	sort.Strings(sorted)
	return "seats:" + showID + ":" + strings.Join(sorted, ",")
}

func (s *BookingService) GetBooking(ctx context.Context, ticketID string) (*booking.Booking, error) {
	return s.bookingRepo.GetByTicketID(ctx, ticketID)
}

func (s *BookingService) GetViewerBookings(ctx context.Context, viewerID string, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.bookingRepo.GetByViewerID(ctx, viewerID, limit, offset)
}

// CancelBooking は予約をキャンセルし、座席を同一トランザクションで解放する
// キャンセルは Booked から Available へ戻る唯一の経路
func (s *BookingService) CancelBooking(ctx context.Context, ticketID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.showRepo.ReleaseSeats(ctx, tx, b.ShowID, b.Seats); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(b.ShowID, realtime.Event{
			Type:   realtime.EventSeatsReleased,
			ShowID: b.ShowID,
			Seats:  b.Seats,
			At:     time.Now(),
		})
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, b.ShowID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
	return b, nil
}

// RecordPaymentResult は外部決済の結果を記録する
// 支払い状態は座席状態に影響しない
func (s *BookingService) RecordPaymentResult(ctx context.Context, ticketID string, paid bool) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if paid {
		err = b.MarkPaid()
	} else {
		err = b.MarkFailed()
	}
	if err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return b, nil
}

func (s *BookingService) countBooking(status string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}
