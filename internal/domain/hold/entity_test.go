package hold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHold(t *testing.T) {
	tests := []struct {
		name        string
		showID      string
		viewerID    string
		seats       []string
		wantErr     bool
		errExpected error
	}{
		{
			name: "正常な保留作成", showID: "show-1", viewerID: "viewer-1",
			seats:   []string{"A1", "A2"},
			wantErr: false,
		},
		{
			name: "上映回ID未指定", showID: "", viewerID: "viewer-1",
			seats:   []string{"A1"},
			wantErr: true, errExpected: ErrShowIDRequired,
		},
		{
			name: "ビューワーID未指定", showID: "show-1", viewerID: "",
			seats:   []string{"A1"},
			wantErr: true, errExpected: ErrViewerIDRequired,
		},
		{
			name: "座席未選択", showID: "show-1", viewerID: "viewer-1",
			seats:   []string{},
			wantErr: true, errExpected: ErrSeatsRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHold(tt.showID, tt.viewerID, tt.seats, DefaultTTL)
			err := h.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.errExpected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.showID, h.ShowID)
			assert.Equal(t, tt.viewerID, h.ViewerID)
			assert.WithinDuration(t, h.IssuedAt.Add(DefaultTTL), h.ExpiresAt, time.Second)
		})
	}
}

func TestHold_IsExpired(t *testing.T) {
	h := NewHold("show-1", "viewer-1", []string{"A1"}, DefaultTTL)

	assert.False(t, h.IsExpired(time.Now()))
	assert.True(t, h.IsExpired(h.ExpiresAt.Add(time.Second)))
}

func TestHold_Contains(t *testing.T) {
	h := NewHold("show-1", "viewer-1", []string{"A1", "B5"}, DefaultTTL)

	assert.True(t, h.Contains("A1"))
	assert.True(t, h.Contains("B5"))
	assert.False(t, h.Contains("C3"))
}

func TestHold_Remove(t *testing.T) {
	t.Run("指定座席のみ外れる", func(t *testing.T) {
		h := NewHold("show-1", "viewer-1", []string{"A1", "A2", "A3"}, DefaultTTL)
		removed := h.Remove([]string{"A2"})
		assert.Equal(t, []string{"A2"}, removed)
		assert.Equal(t, []string{"A1", "A3"}, h.Seats)
	})

	t.Run("保留にない座席は無視される", func(t *testing.T) {
		h := NewHold("show-1", "viewer-1", []string{"A1"}, DefaultTTL)
		removed := h.Remove([]string{"Z9"})
		assert.Empty(t, removed)
		assert.Equal(t, []string{"A1"}, h.Seats)
	})

	t.Run("全座席を外すと空になる", func(t *testing.T) {
		h := NewHold("show-1", "viewer-1", []string{"A1", "A2"}, DefaultTTL)
		removed := h.Remove([]string{"A1", "A2"})
		assert.Len(t, removed, 2)
		assert.Empty(t, h.Seats)
	})
}
