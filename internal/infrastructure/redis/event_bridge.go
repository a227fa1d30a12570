package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
	"github.com/Arjit20/Cine-Book/internal/realtime"
)

// channelPattern は上映回イベントのPub/Subチャンネルパターン
const channelPattern = "show:*:events"

// EventBridge は座席イベントを Redis Pub/Sub 経由で配信する Publisher 実装
// 複数インスタンス構成では全インスタンスの ShowHub に同一イベントが届く
// ローカル配信は購読ループ経由の1回のみ（発行時に直接 hub へは流さない）
type EventBridge struct {
	client *redis.Client
	hub    *realtime.ShowHub
}

// NewEventBridge は新しいブリッジを作成する
func NewEventBridge(client *redis.Client, hub *realtime.ShowHub) *EventBridge {
	return &EventBridge{client: client, hub: hub}
}

// Publish はイベントを上映回チャンネルに発行する
// Redisへの発行に失敗した場合はローカルハブへフォールバックする
func (b *EventBridge) Publish(showID string, ev realtime.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("イベントのエンコードに失敗", zap.Error(err))
		return
	}
	if err := b.client.Publish(context.Background(), b.channelKey(showID), payload).Err(); err != nil {
		logger.Warn("Redisへのイベント発行に失敗、ローカル配信にフォールバック",
			zap.String("show_id", showID), zap.Error(err))
		b.hub.Publish(showID, ev)
	}
}

// Run は購読ループを開始し、受信イベントをローカルハブへ配信する
// ctx のキャンセルで停止する
func (b *EventBridge) Run(ctx context.Context) error {
	sub := b.client.PSubscribe(ctx, channelPattern)
	defer sub.Close()

	// 購読確立を待つ
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("Pub/Sub購読に失敗: %w", err)
	}

	logger.Info("イベントブリッジ開始", zap.String("pattern", channelPattern))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			logger.Info("イベントブリッジ停止")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev realtime.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("イベントのデコードに失敗", zap.Error(err))
				continue
			}
			b.hub.Publish(ev.ShowID, ev)
		}
	}
}

func (b *EventBridge) channelKey(showID string) string {
	return fmt.Sprintf("show:%s:events", showID)
}

var _ realtime.Publisher = (*EventBridge)(nil)
