package realtime

import "time"

// EventType は座席状態イベントの種別を表す
type EventType string

const (
	EventSeatsHeld     EventType = "seats_held"
	EventSeatsReleased EventType = "seats_released"
	EventSeatsBooked   EventType = "seats_booked"
)

// Event は上映回内の座席状態の変化を表す
// 配信は at-least-once であり、消費側は冪等なスナップショット差分として扱うこと
type Event struct {
	Type     EventType `json:"type"`
	ShowID   string    `json:"show_id"`
	Seats    []string  `json:"seats"`
	ViewerID string    `json:"viewer_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher は上映回単位のイベント発行インターフェース
// 水平スケール時は実装を差し替える（Redis Pub/Sub ブリッジ等）
type Publisher interface {
	Publish(showID string, ev Event)
}
