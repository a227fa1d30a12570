package show

import (
	"context"

	"github.com/Arjit20/Cine-Book/internal/domain/transaction"
)

// Repository は上映回・座席リポジトリのインターフェース
type Repository interface {
	// Create は新しい上映回を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, show *Show) error

	// CreateSeats は座席レイアウトを一括作成する（トランザクション必須）
	CreateSeats(ctx context.Context, tx transaction.Tx, seats []*Seat) error

	// GetByID はIDから上映回を取得する
	GetByID(ctx context.Context, id string) (*Show, error)

	// List は上映回一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Show, error)

	// GetSeats は上映回の全座席をラベル順で取得する
	GetSeats(ctx context.Context, showID string) ([]*Seat, error)

	// BookSeats は座席を予約済みに更新する
	// 全座席が available の場合のみ成功する単一の条件付き更新であり、
	// 1席でも条件を満たさない場合は SeatUnavailableError を返す
	BookSeats(ctx context.Context, tx transaction.Tx, showID string, labels []string, ticketID string) error

	// ReleaseSeats は座席を available に戻す（キャンセル経路、トランザクション必須）
	ReleaseSeats(ctx context.Context, tx transaction.Tx, showID string, labels []string) error

	// UnavailableSeats は要求ラベルのうち予約済みまたは存在しないものを返す
	UnavailableSeats(ctx context.Context, showID string, labels []string) ([]string, error)

	// CountAvailable は上映回の予約可能座席数を取得する
	CountAvailable(ctx context.Context, showID string) (int, error)
}
