package application

import (
	"context"
	"sync"

	"github.com/Arjit20/Cine-Book/internal/domain/booking"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/domain/transaction"
	"github.com/Arjit20/Cine-Book/internal/realtime"
)

// fakeTx はロールバック時に登録済みの取り消し操作を逆順で実行する
// 本物のトランザクションと同様、途中失敗で部分適用を残さないことを再現する
type fakeTx struct {
	mu        sync.Mutex
	committed bool
	undo      []func()
}

func (t *fakeTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.committed = true
	t.undo = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.committed {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	return nil
}

func (t *fakeTx) addUndo(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.committed {
		t.undo = append(t.undo, fn)
	}
}

type fakeTxManager struct{}

func (m *fakeTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	return &fakeTx{}, nil
}

// fakeShowRepo はインメモリの上映回・座席ストア
// BookSeats は本物と同じ「全席 available のときのみ更新」の条件付き遷移を
// ミューテックス下で行うため、並行コミットの検証に使える
type fakeShowRepo struct {
	mu    sync.Mutex
	shows map[string]*show.Show
	seats map[string]map[string]*show.Seat // showID -> label -> seat
}

func newFakeShowRepo() *fakeShowRepo {
	return &fakeShowRepo{
		shows: make(map[string]*show.Show),
		seats: make(map[string]map[string]*show.Seat),
	}
}

func (r *fakeShowRepo) addShow(s *show.Show, seats []*show.Seat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shows[s.ID] = s
	byLabel := make(map[string]*show.Seat, len(seats))
	for _, seat := range seats {
		byLabel[seat.Label] = seat
	}
	r.seats[s.ID] = byLabel
}

func (r *fakeShowRepo) Create(ctx context.Context, tx transaction.Tx, s *show.Show) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shows[s.ID] = s
	return nil
}

func (r *fakeShowRepo) CreateSeats(ctx context.Context, tx transaction.Tx, seats []*show.Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, seat := range seats {
		byLabel, ok := r.seats[seat.ShowID]
		if !ok {
			byLabel = make(map[string]*show.Seat)
			r.seats[seat.ShowID] = byLabel
		}
		byLabel[seat.Label] = seat
	}
	return nil
}

func (r *fakeShowRepo) GetByID(ctx context.Context, id string) (*show.Show, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shows[id]
	if !ok {
		return nil, show.ErrShowNotFound
	}
	return s, nil
}

func (r *fakeShowRepo) List(ctx context.Context, limit, offset int) ([]*show.Show, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*show.Show, 0, len(r.shows))
	for _, s := range r.shows {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeShowRepo) GetSeats(ctx context.Context, showID string) ([]*show.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byLabel := r.seats[showID]
	out := make([]*show.Seat, 0, len(byLabel))
	for _, seat := range byLabel {
		copied := *seat
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeShowRepo) BookSeats(ctx context.Context, tx transaction.Tx, showID string, labels []string, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byLabel := r.seats[showID]
	for _, label := range labels {
		seat, ok := byLabel[label]
		if !ok || seat.Status != show.SeatAvailable {
			return show.NewSeatUnavailableError(labels)
		}
	}
	for _, label := range labels {
		seat := byLabel[label]
		seat.Status = show.SeatBooked
		tid := ticketID
		seat.BookedBy = &tid
	}
	return nil
}

func (r *fakeShowRepo) ReleaseSeats(ctx context.Context, tx transaction.Tx, showID string, labels []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byLabel := r.seats[showID]
	for _, label := range labels {
		if seat, ok := byLabel[label]; ok {
			seat.Status = show.SeatAvailable
			seat.BookedBy = nil
		}
	}
	return nil
}

func (r *fakeShowRepo) UnavailableSeats(ctx context.Context, showID string, labels []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byLabel := r.seats[showID]
	var unavailable []string
	for _, label := range labels {
		seat, ok := byLabel[label]
		if !ok || seat.Status != show.SeatAvailable {
			unavailable = append(unavailable, label)
		}
	}
	return unavailable, nil
}

func (r *fakeShowRepo) CountAvailable(ctx context.Context, showID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, seat := range r.seats[showID] {
		if seat.Status == show.SeatAvailable {
			count++
		}
	}
	return count, nil
}

func (r *fakeShowRepo) seatStatus(showID, label string) show.SeatStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seat, ok := r.seats[showID][label]; ok {
		return seat.Status
	}
	return ""
}

var _ show.Repository = (*fakeShowRepo)(nil)

// fakeBookingRepo はインメモリの予約ストア
type fakeBookingRepo struct {
	mu       sync.Mutex
	byTicket map[string]*booking.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{byTicket: make(map[string]*booking.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTicket[b.TicketID]; ok {
		return booking.ErrTicketIDConflict
	}
	copied := *b
	r.byTicket[b.TicketID] = &copied

	if ft, ok := tx.(*fakeTx); ok {
		ticketID := b.TicketID
		ft.addUndo(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.byTicket, ticketID)
		})
	}
	return nil
}

func (r *fakeBookingRepo) GetByTicketID(ctx context.Context, ticketID string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byTicket[ticketID]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) GetByViewerID(ctx context.Context, viewerID string, limit, offset int) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.byTicket {
		if b.ViewerID == viewerID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTicket[b.TicketID]; !ok {
		return booking.ErrBookingNotFound
	}
	copied := *b
	r.byTicket[b.TicketID] = &copied
	return nil
}

func (r *fakeBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byTicket)
}

var _ booking.Repository = (*fakeBookingRepo)(nil)

// capturePublisher は発行されたイベントを記録する
type capturePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *capturePublisher) Publish(showID string, ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) all() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *capturePublisher) lastOfType(t realtime.EventType) (realtime.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == t {
			return p.events[i], true
		}
	}
	return realtime.Event{}, false
}
