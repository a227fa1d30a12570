package show

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SeatStatus は座席の状態を表す
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatHeld      SeatStatus = "held"
	SeatBooked    SeatStatus = "booked"
)

// Show は上映回エンティティを表す
// 上映回ごとに独立した座席マップを持つ
type Show struct {
	ID         string
	MovieTitle string
	Screen     string
	StartsAt   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int // 楽観的ロック用
}

// NewShow は新しい上映回を作成する
func NewShow(movieTitle, screen string, startsAt time.Time) *Show {
	now := time.Now()
	return &Show{
		ID:         uuid.New().String(),
		MovieTitle: movieTitle,
		Screen:     screen,
		StartsAt:   startsAt,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    0,
	}
}

// IsBookingOpen は予約を受け付け可能かを返す
// 上映開始後の予約は受け付けない
func (s *Show) IsBookingOpen() bool {
	return time.Now().Before(s.StartsAt)
}

// Validate は上映回の検証を行う
func (s *Show) Validate() error {
	if s.MovieTitle == "" {
		return ErrMovieTitleRequired
	}
	if s.Screen == "" {
		return ErrScreenRequired
	}
	if s.StartsAt.IsZero() {
		return ErrStartsAtRequired
	}
	return nil
}

// Seat は上映回に属する座席の永続化レコードを表す
// Status が取り得るのは available / booked のみ
// held は保留レイヤーから導出される投影であり、ストアには保存されない
type Seat struct {
	ID        string
	ShowID    string
	Label     string // 座席ラベル（例: "A1"）、上映回内で一意
	Status    SeatStatus
	Price     int
	BookedBy  *string // ticket_id
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// NewSeat は新しい座席レコードを作成する
func NewSeat(showID, label string, price int) *Seat {
	now := time.Now()
	return &Seat{
		ID:        uuid.New().String(),
		ShowID:    showID,
		Label:     label,
		Status:    SeatAvailable,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   0,
	}
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.ShowID == "" {
		return ErrShowIDRequired
	}
	if s.Label == "" {
		return ErrSeatLabelRequired
	}
	if s.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// NewSeatLayout は行×列の座席レイアウトを生成する
// ラベルは "A1".."A{cols}", "B1".. の形式（最大26行）
func NewSeatLayout(showID string, rows, cols, price int) ([]*Seat, error) {
	if rows <= 0 || rows > 26 {
		return nil, ErrInvalidLayout
	}
	if cols <= 0 {
		return nil, ErrInvalidLayout
	}
	seats := make([]*Seat, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 1; c <= cols; c++ {
			label := fmt.Sprintf("%c%d", 'A'+r, c)
			seats = append(seats, NewSeat(showID, label, price))
		}
	}
	return seats, nil
}

// SeatState は座席マップ投影の1要素を表す
// Status は保留レイヤーを重ねた上での観測値（available / held / booked）
type SeatState struct {
	Label  string     `json:"label"`
	Status SeatStatus `json:"status"`
	Price  int        `json:"price"`
}
