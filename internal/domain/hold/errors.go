package hold

import "errors"

// Hold ドメインのエラー定義
var (
	ErrShowIDRequired   = errors.New("上映回IDは必須です")
	ErrViewerIDRequired = errors.New("ビューワーIDは必須です")
	ErrSeatsRequired    = errors.New("座席は必須です")
)
