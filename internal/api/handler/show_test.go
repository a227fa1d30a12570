package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Arjit20/Cine-Book/internal/application"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
)

// MockShowService はShowServiceInterfaceのモック
type MockShowService struct {
	mock.Mock
}

func (m *MockShowService) CreateShow(ctx context.Context, input application.CreateShowInput) (*show.Show, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*show.Show), args.Error(1)
}

func (m *MockShowService) GetShow(ctx context.Context, id string) (*show.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*show.Show), args.Error(1)
}

func (m *MockShowService) ListShows(ctx context.Context, limit, offset int) ([]*show.Show, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*show.Show), args.Error(1)
}

func (m *MockShowService) SeatMap(ctx context.Context, showID string) ([]show.SeatState, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]show.SeatState), args.Error(1)
}

func (m *MockShowService) CountAvailable(ctx context.Context, showID string) (int, error) {
	args := m.Called(ctx, showID)
	return args.Int(0), args.Error(1)
}

func testShow() *show.Show {
	now := time.Now()
	return &show.Show{
		ID: "show-1", MovieTitle: "ある映画", Screen: "スクリーン1",
		StartsAt: now.Add(2 * time.Hour), CreatedAt: now, UpdatedAt: now,
	}
}

func TestShowHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に上映回を作成できる", func(t *testing.T) {
		mockService := new(MockShowService)
		mockService.On("CreateShow", mock.Anything, mock.AnythingOfType("application.CreateShowInput")).
			Return(testShow(), nil)

		handler := NewShowHandler(mockService)

		reqBody := `{
			"movie_title": "ある映画",
			"screen": "スクリーン1",
			"starts_at": "2026-10-01T19:00:00Z",
			"rows": 10,
			"cols": 12,
			"price": 1500
		}`
		req := httptest.NewRequest(http.MethodPost, "/shows", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp ShowResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "show-1", resp.ID)

		mockService.AssertExpectations(t)
	})

	t.Run("行数が26を超える場合400", func(t *testing.T) {
		mockService := new(MockShowService)
		handler := NewShowHandler(mockService)

		reqBody := `{
			"movie_title": "ある映画",
			"screen": "スクリーン1",
			"starts_at": "2026-10-01T19:00:00Z",
			"rows": 30,
			"cols": 12
		}`
		req := httptest.NewRequest(http.MethodPost, "/shows", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestShowHandler_SeatMap(t *testing.T) {
	e := NewTestEcho()

	t.Run("座席マップスナップショットを返す", func(t *testing.T) {
		mockService := new(MockShowService)
		states := []show.SeatState{
			{Label: "A1", Status: show.SeatBooked, Price: 1500},
			{Label: "A2", Status: show.SeatHeld, Price: 1500},
			{Label: "A3", Status: show.SeatAvailable, Price: 1500},
		}
		mockService.On("SeatMap", mock.Anything, "show-1").Return(states, nil)

		handler := NewShowHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/shows/show-1/seats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("show-1")

		err := handler.SeatMap(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []show.SeatState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 3)
		assert.Equal(t, show.SeatHeld, resp[1].Status)
	})

	t.Run("上映回が見つからない場合404", func(t *testing.T) {
		mockService := new(MockShowService)
		mockService.On("SeatMap", mock.Anything, "nonexistent").Return(nil, show.ErrShowNotFound)

		handler := NewShowHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/shows/nonexistent/seats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.SeatMap(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}

func TestShowHandler_List(t *testing.T) {
	e := NewTestEcho()

	t.Run("一覧を取得できる", func(t *testing.T) {
		mockService := new(MockShowService)
		mockService.On("ListShows", mock.Anything, 0, 0).Return([]*show.Show{testShow()}, nil)

		handler := NewShowHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/shows", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.List(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []ShowResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
	})
}

func TestShowHandler_CountAvailable(t *testing.T) {
	e := NewTestEcho()

	mockService := new(MockShowService)
	mockService.On("CountAvailable", mock.Anything, "show-1").Return(42, nil)

	handler := NewShowHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/shows/show-1/seats/count", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("show-1")

	err := handler.CountAvailable(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 42}`, rec.Body.String())
}
