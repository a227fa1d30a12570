package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/domain/hold"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
	"github.com/Arjit20/Cine-Book/internal/pkg/metrics"
	"github.com/Arjit20/Cine-Book/internal/realtime"
)

// HoldService は座席保留（ソフトロック）の唯一の所有者
// 保留状態はインメモリの助言レイヤーであり、再起動後は空から再構築される
// 権威ある booked 状態には一切影響しない
type HoldService struct {
	showRepo  show.Repository
	publisher realtime.Publisher
	ttl       time.Duration

	// mu は保留テーブルのみを守る。ストアI/Oをまたいで保持してはならない
	mu    sync.Mutex
	byKey map[string]map[string]*hold.Hold // showID -> viewerID -> hold
	seats map[string]map[string]string    // showID -> label -> viewerID
}

// NewHoldService は新しい HoldService を作成する
func NewHoldService(showRepo show.Repository, publisher realtime.Publisher, ttl time.Duration) *HoldService {
	if ttl <= 0 {
		ttl = hold.DefaultTTL
	}
	return &HoldService{
		showRepo:  showRepo,
		publisher: publisher,
		ttl:       ttl,
		byKey:     make(map[string]map[string]*hold.Hold),
		seats:     make(map[string]map[string]string),
	}
}

type RequestHoldInput struct {
	ShowID   string
	ViewerID string
	Seats    []string
}

// RequestHold は座席の保留を要求する
// 要求座席セット全体に対して all-or-nothing で付与し、1席でも予約済み・
// 他ビューワー保留中・未知の座席があれば SeatUnavailableError で即時拒否する
// 同一ビューワーによる再リクエストは既存保留を置き換える（TTL更新）
func (s *HoldService) RequestHold(ctx context.Context, input RequestHoldInput) (*hold.Hold, error) {
	h := hold.NewHold(input.ShowID, input.ViewerID, input.Seats, s.ttl)
	if err := h.Validate(); err != nil {
		return nil, err
	}

	// 権威ストアの読み取りはロック取得前に行う
	seatRows, err := s.showRepo.GetSeats(ctx, input.ShowID)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	if len(seatRows) == 0 {
		return nil, show.ErrShowNotFound
	}
	status := make(map[string]show.SeatStatus, len(seatRows))
	for _, row := range seatRows {
		status[row.Label] = row.Status
	}

	s.mu.Lock()
	held := s.seats[input.ShowID]

	var conflicts []string
	for _, label := range input.Seats {
		st, known := status[label]
		if !known || st == show.SeatBooked {
			conflicts = append(conflicts, label)
			continue
		}
		if owner, ok := held[label]; ok && owner != input.ViewerID {
			conflicts = append(conflicts, label)
		}
	}
	if len(conflicts) > 0 {
		s.mu.Unlock()
		if m := metrics.Get(); m != nil {
			m.HoldsTotal.WithLabelValues("rejected").Inc()
		}
		return nil, show.NewSeatUnavailableError(conflicts)
	}

	// 既存保留を置き換える
	s.removeHoldLocked(input.ShowID, input.ViewerID)
	s.putHoldLocked(h)
	s.mu.Unlock()

	s.publish(realtime.Event{
		Type:     realtime.EventSeatsHeld,
		ShowID:   input.ShowID,
		Seats:    h.Seats,
		ViewerID: input.ViewerID,
		At:       h.IssuedAt,
	})
	if m := metrics.Get(); m != nil {
		m.HoldsTotal.WithLabelValues("granted").Inc()
	}

	logger.Debug("保留を付与",
		zap.String("show_id", input.ShowID),
		zap.String("viewer_id", input.ViewerID),
		zap.Strings("seats", h.Seats),
	)
	return h, nil
}

// Release は指定座席の保留を解放する。冪等であり、保留していない座席の
// 解放は何もしない。座席リストが空の場合は保留全体を解放する
func (s *HoldService) Release(ctx context.Context, showID, viewerID string, seats []string) {
	if len(seats) == 0 {
		s.ReleaseViewer(ctx, showID, viewerID)
		return
	}

	s.mu.Lock()
	var released []string
	if h, ok := s.byKey[showID][viewerID]; ok {
		released = h.Remove(seats)
		for _, label := range released {
			delete(s.seats[showID], label)
		}
		if len(h.Seats) == 0 {
			s.removeHoldLocked(showID, viewerID)
		}
	}
	s.mu.Unlock()

	if len(released) > 0 {
		s.publish(realtime.Event{
			Type:   realtime.EventSeatsReleased,
			ShowID: showID,
			Seats:  released,
			At:     time.Now(),
		})
	}
}

// ReleaseViewer はビューワーの保留を全て解放する（切断時のクリーンアップ）
func (s *HoldService) ReleaseViewer(ctx context.Context, showID, viewerID string) {
	s.mu.Lock()
	var released []string
	if h, ok := s.byKey[showID][viewerID]; ok {
		released = h.Seats
		s.removeHoldLocked(showID, viewerID)
	}
	s.mu.Unlock()

	if len(released) > 0 {
		s.publish(realtime.Event{
			Type:   realtime.EventSeatsReleased,
			ShowID: showID,
			Seats:  released,
			At:     time.Now(),
		})
		logger.Debug("切断により保留を解放",
			zap.String("show_id", showID),
			zap.String("viewer_id", viewerID),
			zap.Strings("seats", released),
		)
	}
}

// ReleaseSeatsForBooking は予約確定した座席を参照する保留を所有者を問わず
// 取り除く。SeatsBooked イベントが状態を伝えるため、ここでは発行しない
func (s *HoldService) ReleaseSeatsForBooking(showID string, seats []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.seats[showID]
	for _, label := range seats {
		viewerID, ok := held[label]
		if !ok {
			continue
		}
		if h, ok := s.byKey[showID][viewerID]; ok {
			h.Remove([]string{label})
			if len(h.Seats) == 0 {
				s.removeHoldLocked(showID, viewerID)
				continue
			}
		}
		delete(held, label)
	}
	s.updateGaugeLocked()
}

// SweepExpired は期限切れの保留を掃除し、解放した保留の数を返す
// バックグラウンドワーカーから定期的に呼ばれる
func (s *HoldService) SweepExpired(ctx context.Context) (int, error) {
	now := time.Now()

	s.mu.Lock()
	var swept []*hold.Hold
	for showID, holds := range s.byKey {
		for viewerID, h := range holds {
			if h.IsExpired(now) {
				swept = append(swept, h)
				s.removeHoldLocked(showID, viewerID)
			}
		}
	}
	s.mu.Unlock()

	for _, h := range swept {
		s.publish(realtime.Event{
			Type:   realtime.EventSeatsReleased,
			ShowID: h.ShowID,
			Seats:  h.Seats,
			At:     now,
		})
		logger.Debug("期限切れ保留を解放",
			zap.String("show_id", h.ShowID),
			zap.String("viewer_id", h.ViewerID),
			zap.Strings("seats", h.Seats),
		)
	}
	return len(swept), nil
}

// HeldSeats は上映回の保留中座席とその所有者を返す（座席マップ投影用）
func (s *HoldService) HeldSeats(showID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.seats[showID]
	out := make(map[string]string, len(held))
	for label, viewerID := range held {
		out[label] = viewerID
	}
	return out
}

func (s *HoldService) putHoldLocked(h *hold.Hold) {
	holds, ok := s.byKey[h.ShowID]
	if !ok {
		holds = make(map[string]*hold.Hold)
		s.byKey[h.ShowID] = holds
	}
	holds[h.ViewerID] = h

	held, ok := s.seats[h.ShowID]
	if !ok {
		held = make(map[string]string)
		s.seats[h.ShowID] = held
	}
	for _, label := range h.Seats {
		held[label] = h.ViewerID
	}
	s.updateGaugeLocked()
}

func (s *HoldService) removeHoldLocked(showID, viewerID string) {
	h, ok := s.byKey[showID][viewerID]
	if !ok {
		return
	}
	for _, label := range h.Seats {
		delete(s.seats[showID], label)
	}
	delete(s.byKey[showID], viewerID)
	if len(s.byKey[showID]) == 0 {
		delete(s.byKey, showID)
		delete(s.seats, showID)
	}
	s.updateGaugeLocked()
}

func (s *HoldService) updateGaugeLocked() {
	if m := metrics.Get(); m != nil {
		total := 0
		for _, held := range s.seats {
			total += len(held)
		}
		m.ActiveHeldSeats.Set(float64(total))
	}
}

func (s *HoldService) publish(ev realtime.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ev.ShowID, ev)
	if m := metrics.Get(); m != nil {
		m.BroadcastEventsTotal.WithLabelValues(string(ev.Type)).Inc()
	}
}
