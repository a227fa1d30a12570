package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// sessionBuffer はセッションごとの受信バッファ長
// 溢れたイベントは破棄される（遅い購読者は切り離さず、配信は best-effort）
const sessionBuffer = 16

// CleanupFunc はセッション切断時に呼ばれるコールバック
// Hold Manager がビューワーの保留を即時解放するために使う
type CleanupFunc func(showID, viewerID string)

// Session は接続中ビューワーと上映回の一時的な関連を表す
type Session struct {
	ID       string
	ShowID   string
	ViewerID string
	ch       chan Event
}

// Events はこのセッションへのイベント受信チャンネルを返す
func (s *Session) Events() <-chan Event {
	return s.ch
}

// ShowHub は上映回ごとのセッション登録と座席イベントのファンアウトを担う
// 上映回キーでの探索はその上映回のセッション数にのみ比例する
type ShowHub struct {
	mu       sync.Mutex
	shows    map[string]map[*Session]struct{}
	cleanup  CleanupFunc
	onChange func(sessions int) // メトリクス用フック
}

// NewShowHub は新しいハブを作成する
func NewShowHub() *ShowHub {
	return &ShowHub{shows: make(map[string]map[*Session]struct{})}
}

// SetCleanup は切断時コールバックを設定する
func (h *ShowHub) SetCleanup(fn CleanupFunc) {
	h.mu.Lock()
	h.cleanup = fn
	h.mu.Unlock()
}

// SetOnChange はセッション総数の変化を通知するフックを設定する
func (h *ShowHub) SetOnChange(fn func(sessions int)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Attach はビューワーを上映回セッションに接続する
func (h *ShowHub) Attach(showID, viewerID string) *Session {
	s := &Session{
		ID:       uuid.New().String(),
		ShowID:   showID,
		ViewerID: viewerID,
		ch:       make(chan Event, sessionBuffer),
	}
	h.mu.Lock()
	set, ok := h.shows[showID]
	if !ok {
		set = make(map[*Session]struct{})
		h.shows[showID] = set
	}
	set[s] = struct{}{}
	onChange, total := h.onChange, h.totalLocked()
	h.mu.Unlock()

	if onChange != nil {
		onChange(total)
	}
	return s
}

// Detach はセッションを切断し、切断時コールバックを起動する
// 多重呼び出しは安全
func (h *ShowHub) Detach(s *Session) {
	h.mu.Lock()
	set, ok := h.shows[s.ShowID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.shows, s.ShowID)
	}
	close(s.ch)
	cleanup, onChange, total := h.cleanup, h.onChange, h.totalLocked()
	h.mu.Unlock()

	if onChange != nil {
		onChange(total)
	}
	// コールバックはロック外で実行する
	if cleanup != nil {
		cleanup(s.ShowID, s.ViewerID)
	}
}

// Publish は上映回の全セッションにイベントを配信する
// ロック下で送信することで同一上映回内の配信順序を発行順に揃える
// バッファ満杯のセッションへの配信は破棄する
func (h *ShowHub) Publish(showID string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.shows[showID] {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Sessions は上映回の現在のセッション数を返す
func (h *ShowHub) Sessions(showID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.shows[showID])
}

func (h *ShowHub) totalLocked() int {
	total := 0
	for _, set := range h.shows {
		total += len(set)
	}
	return total
}

var _ Publisher = (*ShowHub)(nil)
