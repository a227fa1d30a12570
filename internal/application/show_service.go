package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/domain/transaction"
	redisinfra "github.com/Arjit20/Cine-Book/internal/infrastructure/redis"
	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
)

const (
	seatCacheTTL = 30 * time.Second
)

// HeldSeatsReader は保留レイヤーの観測インターフェース
// 座席マップ投影で held 状態を重ねるために使う
type HeldSeatsReader interface {
	HeldSeats(showID string) map[string]string
}

// ShowService は上映回と座席マップの問い合わせ・作成を担う
type ShowService struct {
	txManager transaction.Manager
	showRepo  show.Repository
	holds     HeldSeatsReader
	cache     *redisinfra.SeatCache
}

func NewShowService(txManager transaction.Manager, sr show.Repository, holds HeldSeatsReader, cache *redisinfra.SeatCache) *ShowService {
	return &ShowService{txManager: txManager, showRepo: sr, holds: holds, cache: cache}
}

type CreateShowInput struct {
	MovieTitle string
	Screen     string
	StartsAt   time.Time
	Rows       int
	Cols       int
	Price      int
}

// CreateShow は上映回と座席レイアウトを1トランザクションで作成する
func (s *ShowService) CreateShow(ctx context.Context, input CreateShowInput) (*show.Show, error) {
	sh := show.NewShow(input.MovieTitle, input.Screen, input.StartsAt)
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	seats, err := show.NewSeatLayout(sh.ID, input.Rows, input.Cols, input.Price)
	if err != nil {
		return nil, err
	}
	for _, seat := range seats {
		if err := seat.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.showRepo.Create(ctx, tx, sh); err != nil {
		return nil, err
	}
	if err := s.showRepo.CreateSeats(ctx, tx, seats); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	logger.Info("上映回を作成",
		zap.String("show_id", sh.ID),
		zap.String("movie_title", sh.MovieTitle),
		zap.Int("seats", len(seats)),
	)
	return sh, nil
}

func (s *ShowService) GetShow(ctx context.Context, id string) (*show.Show, error) {
	return s.showRepo.GetByID(ctx, id)
}

func (s *ShowService) ListShows(ctx context.Context, limit, offset int) ([]*show.Show, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.showRepo.List(ctx, limit, offset)
}

// SeatMap は座席マップの全体スナップショットを返す
// ストアの available/booked に保留レイヤーの held を重ねた投影
// 遅れて参加したビューワーの初期表示に使う
func (s *ShowService) SeatMap(ctx context.Context, showID string) ([]show.SeatState, error) {
	seats, err := s.showRepo.GetSeats(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	if len(seats) == 0 {
		return nil, show.ErrShowNotFound
	}

	var held map[string]string
	if s.holds != nil {
		held = s.holds.HeldSeats(showID)
	}

	states := make([]show.SeatState, len(seats))
	for i, seat := range seats {
		status := seat.Status
		if status == show.SeatAvailable {
			if _, ok := held[seat.Label]; ok {
				status = show.SeatHeld
			}
		}
		states[i] = show.SeatState{Label: seat.Label, Status: status, Price: seat.Price}
	}
	return states, nil
}

// CountAvailable は予約も保留もされていない座席数を返す
// ストア由来の空席数はキャッシュし、保留分は都度差し引く
func (s *ShowService) CountAvailable(ctx context.Context, showID string) (int, error) {
	count, err := s.storeAvailableCount(ctx, showID)
	if err != nil {
		return 0, err
	}
	if s.holds != nil {
		count -= len(s.holds.HeldSeats(showID))
		if count < 0 {
			count = 0
		}
	}
	return count, nil
}

func (s *ShowService) storeAvailableCount(ctx context.Context, showID string) (int, error) {
	// キャッシュから取得を試みる
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, showID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("show_id", showID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	// DBから取得
	count, err := s.showRepo.CountAvailable(ctx, showID)
	if err != nil {
		return 0, err
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, showID, count, seatCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return count, nil
}
