package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Arjit20/Cine-Book/internal/application"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
)

type ShowHandler struct {
	service ShowServiceInterface
}

func NewShowHandler(s ShowServiceInterface) *ShowHandler {
	return &ShowHandler{service: s}
}

type CreateShowRequest struct {
	MovieTitle string    `json:"movie_title" validate:"required"`
	Screen     string    `json:"screen" validate:"required"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	Rows       int       `json:"rows" validate:"required,min=1,max=26"`
	Cols       int       `json:"cols" validate:"required,min=1,max=50"`
	Price      int       `json:"price" validate:"min=0"`
}

type ShowResponse struct {
	ID         string    `json:"id"`
	MovieTitle string    `json:"movie_title"`
	Screen     string    `json:"screen"`
	StartsAt   time.Time `json:"starts_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func toShowResponse(s *show.Show) ShowResponse {
	return ShowResponse{
		ID: s.ID, MovieTitle: s.MovieTitle, Screen: s.Screen,
		StartsAt: s.StartsAt, CreatedAt: s.CreatedAt,
	}
}

func (h *ShowHandler) Create(c echo.Context) error {
	var req CreateShowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.CreateShow(c.Request().Context(), application.CreateShowInput{
		MovieTitle: req.MovieTitle, Screen: req.Screen, StartsAt: req.StartsAt,
		Rows: req.Rows, Cols: req.Cols, Price: req.Price,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toShowResponse(s))
}

func (h *ShowHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	s, err := h.service.GetShow(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toShowResponse(s))
}

func (h *ShowHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	shows, err := h.service.ListShows(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ShowResponse, len(shows))
	for i, s := range shows {
		resp[i] = toShowResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// SeatMap は座席マップの全体スナップショットを返す
// 途中から参加するビューワーの初期表示用
func (h *ShowHandler) SeatMap(c echo.Context) error {
	showID := c.Param("id")
	states, err := h.service.SeatMap(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, states)
}

func (h *ShowHandler) CountAvailable(c echo.Context) error {
	showID := c.Param("id")
	count, err := h.service.CountAvailable(c.Request().Context(), showID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}
