package booking

import (
	"context"

	"github.com/Arjit20/Cine-Book/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// チケットIDの一意制約違反は ErrTicketIDConflict を返す
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByTicketID はチケットIDから予約を取得する
	GetByTicketID(ctx context.Context, ticketID string) (*Booking, error)

	// GetByViewerID はビューワーIDから予約一覧を取得する
	GetByViewerID(ctx context.Context, viewerID string, limit, offset int) ([]*Booking, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, b *Booking) error
}
