package show

import (
	"errors"
	"sort"
	"strings"
)

// Show ドメインのエラー定義
var (
	ErrShowNotFound       = errors.New("上映回が見つかりません")
	ErrShowNotOpen        = errors.New("この上映回は予約を受け付けていません")
	ErrSeatNotFound       = errors.New("座席が見つかりません")
	ErrMovieTitleRequired = errors.New("作品タイトルは必須です")
	ErrScreenRequired     = errors.New("スクリーン名は必須です")
	ErrStartsAtRequired   = errors.New("上映開始時刻は必須です")
	ErrShowIDRequired     = errors.New("上映回IDは必須です")
	ErrSeatLabelRequired  = errors.New("座席ラベルは必須です")
	ErrInvalidPrice       = errors.New("価格は0以上である必要があります")
	ErrInvalidLayout      = errors.New("座席レイアウトが不正です（行は1〜26、列は1以上）")
)

// SeatUnavailableError は要求された座席のうち利用できないものを保持する
// 呼び出し側はこのリストを使って座席を選び直せる
type SeatUnavailableError struct {
	Seats []string
}

func (e *SeatUnavailableError) Error() string {
	return "座席が利用できません: " + strings.Join(e.Seats, ", ")
}

// NewSeatUnavailableError はラベルをソートして競合エラーを作成する
func NewSeatUnavailableError(seats []string) *SeatUnavailableError {
	sorted := make([]string, len(seats))
	copy(sorted, seats)
	sort.Strings(sorted)
	return &SeatUnavailableError{Seats: sorted}
}
