package hold

import "time"

// DefaultTTL は保留の既定有効期間（5分）
// 延長は同一座席への再リクエストによってのみ行われる
const DefaultTTL = 5 * time.Minute

// Hold は座席の一時的な保留（ソフトロック）を表す
// 保留は (上映回, ビューワー) ごとに高々1つで、再リクエストで置き換えられる
// 拘束力のない意思表示であり、他者の予約確定を妨げない
type Hold struct {
	ShowID    string
	ViewerID  string
	Seats     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewHold は新しい保留を作成する
func NewHold(showID, viewerID string, seats []string, ttl time.Duration) *Hold {
	now := time.Now()
	return &Hold{
		ShowID:    showID,
		ViewerID:  viewerID,
		Seats:     seats,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired は保留が期限切れかを返す
func (h *Hold) IsExpired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// Contains は指定座席がこの保留に含まれるかを返す
func (h *Hold) Contains(label string) bool {
	for _, s := range h.Seats {
		if s == label {
			return true
		}
	}
	return false
}

// Remove は指定座席を保留から外し、実際に外れた座席を返す
func (h *Hold) Remove(labels []string) []string {
	removed := make([]string, 0, len(labels))
	remaining := h.Seats[:0]
	drop := make(map[string]bool, len(labels))
	for _, l := range labels {
		drop[l] = true
	}
	for _, s := range h.Seats {
		if drop[s] {
			removed = append(removed, s)
		} else {
			remaining = append(remaining, s)
		}
	}
	h.Seats = remaining
	return removed
}

// Validate は保留の検証を行う
func (h *Hold) Validate() error {
	if h.ShowID == "" {
		return ErrShowIDRequired
	}
	if h.ViewerID == "" {
		return ErrViewerIDRequired
	}
	if len(h.Seats) == 0 {
		return ErrSeatsRequired
	}
	return nil
}
