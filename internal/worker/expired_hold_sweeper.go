package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
)

// HoldSweeper は期限切れ保留を解放するインターフェース
type HoldSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ExpiredHoldSweeper は期限切れの座席保留を定期的に掃除するワーカー
type ExpiredHoldSweeper struct {
	holds    HoldSweeper
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewExpiredHoldSweeper は新しいスイーパーを作成
func NewExpiredHoldSweeper(holds HoldSweeper, interval time.Duration) *ExpiredHoldSweeper {
	return &ExpiredHoldSweeper{
		holds:    holds,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (w *ExpiredHoldSweeper) Start(ctx context.Context) {
	logger.Info("期限切れ保留スイーパー開始",
		zap.Duration("interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ保留スイーパー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("期限切れ保留スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (w *ExpiredHoldSweeper) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// sweep は期限切れ保留を解放
func (w *ExpiredHoldSweeper) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れ保留の掃除開始")

	count, err := w.holds.SweepExpired(ctx)
	if err != nil {
		log.Error("期限切れ保留の掃除失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("期限切れ保留を解放", zap.Int("count", count))
	} else {
		log.Debug("期限切れ保留なし")
	}
}
