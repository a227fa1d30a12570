package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound         = errors.New("予約が見つかりません")
	ErrBookingCancelled        = errors.New("予約はキャンセルされています")
	ErrBookingAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrBookingAlreadyPaid      = errors.New("支払い済みの予約はキャンセルできません")
	ErrTicketIDConflict        = errors.New("チケットIDが衝突しました（一意性保証の破綻）")
	ErrShowIDRequired          = errors.New("上映回IDは必須です")
	ErrViewerIDRequired        = errors.New("ビューワーIDは必須です")
	ErrSeatsRequired           = errors.New("座席は必須です")
	ErrEmailRequired           = errors.New("メールアドレスは必須です")
	ErrInvalidAmount           = errors.New("合計金額は0以上である必要があります")
)
