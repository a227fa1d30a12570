package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	require.NotNil(t, m)

	t.Run("予約メトリクスをカウントできる", func(t *testing.T) {
		m.BookingsTotal.WithLabelValues("success").Inc()
		m.BookingsTotal.WithLabelValues("conflict").Add(2)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.BookingsTotal.WithLabelValues("success")))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.BookingsTotal.WithLabelValues("conflict")))
	})

	t.Run("保留メトリクスをカウントできる", func(t *testing.T) {
		m.HoldsTotal.WithLabelValues("granted").Inc()
		m.HoldsTotal.WithLabelValues("rejected").Inc()

		assert.Equal(t, float64(1), testutil.ToFloat64(m.HoldsTotal.WithLabelValues("granted")))
	})

	t.Run("ゲージを更新できる", func(t *testing.T) {
		m.ActiveHeldSeats.Set(5)
		m.ActiveSessions.Set(3)

		assert.Equal(t, float64(5), testutil.ToFloat64(m.ActiveHeldSeats))
		assert.Equal(t, float64(3), testutil.ToFloat64(m.ActiveSessions))
	})

	t.Run("配信イベントをカウントできる", func(t *testing.T) {
		m.BroadcastEventsTotal.WithLabelValues("seats_held").Inc()
		assert.Equal(t, float64(1), testutil.ToFloat64(m.BroadcastEventsTotal.WithLabelValues("seats_held")))
	})
}

func TestNewWithRegistry_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWithRegistry(reg)

	// 同じレジストリへの二重登録はパニックする
	assert.Panics(t, func() {
		NewWithRegistry(reg)
	})
}
