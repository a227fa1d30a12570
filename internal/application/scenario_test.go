package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/realtime"
)

// 保留と確定が絡む一連の流れを通しで検証する
func TestScenario_HoldThenBook(t *testing.T) {
	ctx := context.Background()
	env := setupBookingTest(t)

	// V1 が A1, A2 を保留
	_, err := env.holds.RequestHold(ctx, RequestHoldInput{
		ShowID: env.show.ID, ViewerID: "viewer-1", Seats: []string{"A1", "A2"},
	})
	require.NoError(t, err)

	// V2 は A2 を含む保留を拒否される
	_, err = env.holds.RequestHold(ctx, RequestHoldInput{
		ShowID: env.show.ID, ViewerID: "viewer-2", Seats: []string{"A2", "A3"},
	})
	var unavailable *show.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A2"}, unavailable.Seats)

	// V1 が保留した座席で予約を確定
	b, err := env.bookings.CreateBooking(ctx, CreateBookingInput{
		ShowID: env.show.ID, ViewerID: "viewer-1",
		Seats: []string{"A1", "A2"}, Email: "viewer1@example.com",
	})
	require.NoError(t, err)

	// 確定後、保留テーブルから消え、座席は booked
	assert.Empty(t, env.holds.HeldSeats(env.show.ID))
	assert.Equal(t, show.SeatBooked, env.showRepo.seatStatus(env.show.ID, "A1"))

	// V2 の確定試行は拒否され、残った座席で保留し直せる
	_, err = env.bookings.CreateBooking(ctx, CreateBookingInput{
		ShowID: env.show.ID, ViewerID: "viewer-2",
		Seats: []string{"A1"}, Email: "viewer2@example.com",
	})
	require.ErrorAs(t, err, &unavailable)

	_, err = env.holds.RequestHold(ctx, RequestHoldInput{
		ShowID: env.show.ID, ViewerID: "viewer-2", Seats: []string{"A3"},
	})
	require.NoError(t, err)

	// 座席マップ投影: booked と held が重なって見える
	showSvc := NewShowService(&fakeTxManager{}, env.showRepo, env.holds, nil)
	states, err := showSvc.SeatMap(ctx, env.show.ID)
	require.NoError(t, err)
	byLabel := make(map[string]show.SeatStatus, len(states))
	for _, st := range states {
		byLabel[st.Label] = st.Status
	}
	assert.Equal(t, show.SeatBooked, byLabel["A1"])
	assert.Equal(t, show.SeatBooked, byLabel["A2"])
	assert.Equal(t, show.SeatHeld, byLabel["A3"])
	assert.Equal(t, show.SeatAvailable, byLabel["A4"])

	_ = b
}

// 同一座席への並行確定は高々1件しか成功しない
func TestScenario_ConcurrentBooking(t *testing.T) {
	ctx := context.Background()
	env := setupBookingTest(t)

	const viewers = 10
	var wg sync.WaitGroup
	results := make([]error, viewers)

	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.bookings.CreateBooking(ctx, CreateBookingInput{
				ShowID:   env.show.ID,
				ViewerID: "viewer-" + string(rune('a'+i)),
				Seats:    []string{"B5"},
				Email:    "viewer@example.com",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			var unavailable *show.SeatUnavailableError
			assert.ErrorAs(t, err, &unavailable)
		}
	}
	assert.Equal(t, 1, succeeded, "同一座席の予約はちょうど1件だけ成功する")
	assert.Equal(t, 1, env.repo.count())
	assert.Equal(t, show.SeatBooked, env.showRepo.seatStatus(env.show.ID, "B5"))
}

// 期限切れ保留の解放が購読者へ伝播する
func TestScenario_ExpiryBroadcast(t *testing.T) {
	ctx := context.Background()

	showRepo := newFakeShowRepo()
	sh := show.NewShow("ある映画", "スクリーン1", time.Now().Add(2*time.Hour))
	seats, err := show.NewSeatLayout(sh.ID, 2, 2, 1000)
	require.NoError(t, err)
	showRepo.addShow(sh, seats)

	hub := realtime.NewShowHub()
	holds := NewHoldService(showRepo, hub, 10*time.Millisecond)
	session := hub.Attach(sh.ID, "watcher")
	defer hub.Detach(session)

	h, err := holds.RequestHold(ctx, RequestHoldInput{
		ShowID: sh.ID, ViewerID: "viewer-1", Seats: []string{"A1"},
	})
	require.NoError(t, err)

	// 付与イベントを受信
	held := <-session.Events()
	assert.Equal(t, realtime.EventSeatsHeld, held.Type)

	// TTL経過後の掃除で解放イベントが届く
	require.Eventually(t, func() bool {
		return h.IsExpired(time.Now())
	}, time.Second, 5*time.Millisecond)

	swept, err := holds.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	released := <-session.Events()
	assert.Equal(t, realtime.EventSeatsReleased, released.Type)
	assert.Equal(t, []string{"A1"}, released.Seats)
	assert.Empty(t, holds.HeldSeats(sh.ID))
}

// 切断クリーンアップでビューワーの保留が解放される
func TestScenario_DisconnectCleanup(t *testing.T) {
	ctx := context.Background()

	showRepo := newFakeShowRepo()
	sh := show.NewShow("ある映画", "スクリーン1", time.Now().Add(2*time.Hour))
	seats, err := show.NewSeatLayout(sh.ID, 2, 2, 1000)
	require.NoError(t, err)
	showRepo.addShow(sh, seats)

	hub := realtime.NewShowHub()
	holds := NewHoldService(showRepo, hub, time.Minute)
	hub.SetCleanup(func(showID, viewerID string) {
		holds.ReleaseViewer(context.Background(), showID, viewerID)
	})

	session := hub.Attach(sh.ID, "viewer-1")
	_, err = holds.RequestHold(ctx, RequestHoldInput{
		ShowID: sh.ID, ViewerID: "viewer-1", Seats: []string{"A1", "A2"},
	})
	require.NoError(t, err)

	hub.Detach(session)

	assert.Empty(t, holds.HeldSeats(sh.ID))
	// 座席は誰でも保留し直せる
	_, err = holds.RequestHold(ctx, RequestHoldInput{
		ShowID: sh.ID, ViewerID: "viewer-2", Seats: []string{"A1"},
	})
	require.NoError(t, err)
}
