package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/domain/transaction"
)

type showRow struct {
	ID         string    `db:"id"`
	MovieTitle string    `db:"movie_title"`
	Screen     string    `db:"screen"`
	StartsAt   time.Time `db:"starts_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

func (r *showRow) toEntity() *show.Show {
	return &show.Show{
		ID: r.ID, MovieTitle: r.MovieTitle, Screen: r.Screen,
		StartsAt: r.StartsAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		Version: r.Version,
	}
}

type seatRow struct {
	ID        string    `db:"id"`
	ShowID    string    `db:"show_id"`
	Label     string    `db:"label"`
	Status    string    `db:"status"`
	Price     int       `db:"price"`
	BookedBy  *string   `db:"booked_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Version   int       `db:"version"`
}

func (r *seatRow) toEntity() *show.Seat {
	return &show.Seat{
		ID: r.ID, ShowID: r.ShowID, Label: r.Label,
		Status: show.SeatStatus(r.Status), Price: r.Price, BookedBy: r.BookedBy,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
}

type ShowRepository struct{ db *sqlx.DB }

func NewShowRepository(db *sqlx.DB) *ShowRepository { return &ShowRepository{db: db} }

func (r *ShowRepository) Create(ctx context.Context, tx transaction.Tx, s *show.Show) error {
	query := `INSERT INTO shows (id, movie_title, screen, starts_at, created_at, updated_at, version) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := UnwrapTx(tx).ExecContext(ctx, query, s.ID, s.MovieTitle, s.Screen, s.StartsAt, s.CreatedAt, s.UpdatedAt, s.Version)
	if err != nil {
		return fmt.Errorf("上映回作成に失敗: %w", err)
	}
	return nil
}

func (r *ShowRepository) CreateSeats(ctx context.Context, tx transaction.Tx, seats []*show.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 500
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createSeatsBatch(ctx, tx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ShowRepository) createSeatsBatch(ctx context.Context, tx transaction.Tx, seats []*show.Seat) error {
	query := `INSERT INTO show_seats (id, show_id, label, status, price, created_at, updated_at, version) VALUES `
	args := make([]interface{}, 0, len(seats)*8)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, s.ID, s.ShowID, s.Label, string(s.Status), s.Price, s.CreatedAt, s.UpdatedAt, s.Version)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := UnwrapTx(tx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *ShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	query := `SELECT id, movie_title, screen, starts_at, created_at, updated_at, version FROM shows WHERE id = $1`
	var row showRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, show.ErrShowNotFound
		}
		return nil, fmt.Errorf("上映回取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ShowRepository) List(ctx context.Context, limit, offset int) ([]*show.Show, error) {
	query := `SELECT id, movie_title, screen, starts_at, created_at, updated_at, version FROM shows ORDER BY starts_at LIMIT $1 OFFSET $2`
	var rows []showRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, err
	}
	shows := make([]*show.Show, len(rows))
	for i, row := range rows {
		shows[i] = row.toEntity()
	}
	return shows, nil
}

func (r *ShowRepository) GetSeats(ctx context.Context, showID string) ([]*show.Seat, error) {
	query := `SELECT id, show_id, label, status, price, booked_by, created_at, updated_at, version FROM show_seats WHERE show_id = $1 ORDER BY label`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, showID); err != nil {
		return nil, err
	}
	seats := make([]*show.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

// BookSeats は単一の条件付きUPDATEで座席を booked に遷移させる
// 更新行数が要求座席数に一致しない場合は競合として扱い、呼び出し側で
// トランザクションをロールバックすることで部分適用を残さない
func (r *ShowRepository) BookSeats(ctx context.Context, tx transaction.Tx, showID string, labels []string, ticketID string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `UPDATE show_seats SET status = 'booked', booked_by = $1, updated_at = NOW(), version = version + 1 WHERE show_id = $2 AND label = ANY($3) AND status = 'available'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, ticketID, showID, pq.Array(labels))
	if err != nil {
		return fmt.Errorf("座席予約に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(labels) {
		return show.NewSeatUnavailableError(labels)
	}
	return nil
}

func (r *ShowRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, showID string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `UPDATE show_seats SET status = 'available', booked_by = NULL, updated_at = NOW(), version = version + 1 WHERE show_id = $1 AND label = ANY($2)`
	if _, err := UnwrapTx(tx).ExecContext(ctx, query, showID, pq.Array(labels)); err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	return nil
}

// UnavailableSeats は要求ラベルのうち予約済み・存在しないものを返す
// 競合レスポンスの具体的な座席リストを組み立てるために使う
func (r *ShowRepository) UnavailableSeats(ctx context.Context, showID string, labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	query := `SELECT label, status FROM show_seats WHERE show_id = $1 AND label = ANY($2)`
	rows, err := r.db.QueryxContext(ctx, query, showID, pq.Array(labels))
	if err != nil {
		return nil, fmt.Errorf("座席状態取得に失敗: %w", err)
	}
	defer rows.Close()

	status := make(map[string]string, len(labels))
	for rows.Next() {
		var label, st string
		if err := rows.Scan(&label, &st); err != nil {
			return nil, err
		}
		status[label] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unavailable []string
	for _, l := range labels {
		st, ok := status[l]
		if !ok || st != string(show.SeatAvailable) {
			unavailable = append(unavailable, l)
		}
	}
	return unavailable, nil
}

func (r *ShowRepository) CountAvailable(ctx context.Context, showID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM show_seats WHERE show_id = $1 AND status = 'available'`, showID)
	return count, err
}

var _ show.Repository = (*ShowRepository)(nil)
