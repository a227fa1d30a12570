package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Arjit20/Cine-Book/internal/application"
	"github.com/Arjit20/Cine-Book/internal/api/middleware"
)

type HoldHandler struct {
	service HoldServiceInterface
}

func NewHoldHandler(s HoldServiceInterface) *HoldHandler {
	return &HoldHandler{service: s}
}

type RequestHoldRequest struct {
	Seats []string `json:"seats" validate:"required,min=1,dive,seat_label"`
}

type HoldResponse struct {
	ShowID    string    `json:"show_id"`
	ViewerID  string    `json:"viewer_id"`
	Seats     []string  `json:"seats"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Request は座席保留を要求する
// 全席付与できた場合のみ 201 を返し、競合はエラーハンドラー経由で 409 になる
func (h *HoldHandler) Request(c echo.Context) error {
	var req RequestHoldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	held, err := h.service.RequestHold(c.Request().Context(), application.RequestHoldInput{
		ShowID:   c.Param("id"),
		ViewerID: middleware.ViewerID(c),
		Seats:    req.Seats,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, HoldResponse{
		ShowID:    held.ShowID,
		ViewerID:  held.ViewerID,
		Seats:     held.Seats,
		ExpiresAt: held.ExpiresAt,
	})
}

type ReleaseHoldRequest struct {
	Seats []string `json:"seats"`
}

// Release は保留座席を解放する
// 座席リストが空なら当該ビューワーの保留全体を解放する。冪等
func (h *HoldHandler) Release(c echo.Context) error {
	var req ReleaseHoldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	h.service.Release(c.Request().Context(), c.Param("id"), middleware.ViewerID(c), req.Seats)

	return c.NoContent(http.StatusNoContent)
}
