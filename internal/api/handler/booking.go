package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Arjit20/Cine-Book/internal/api/middleware"
	"github.com/Arjit20/Cine-Book/internal/application"
	"github.com/Arjit20/Cine-Book/internal/domain/booking"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	ShowID string   `json:"show_id" validate:"required"`
	Seats  []string `json:"seats" validate:"required,min=1,dive,seat_label"`
	Email  string   `json:"email" validate:"required,email"`
	Phone  string   `json:"phone" validate:"omitempty,min=10"`
}

type BookingResponse struct {
	TicketID      string     `json:"ticket_id"`
	ShowID        string     `json:"show_id"`
	ViewerID      string     `json:"viewer_id"`
	Seats         []string   `json:"seats"`
	TotalAmount   int        `json:"total_amount"`
	PaymentStatus string     `json:"payment_status"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		TicketID:      b.TicketID,
		ShowID:        b.ShowID,
		ViewerID:      b.ViewerID,
		Seats:         b.Seats,
		TotalAmount:   b.TotalAmount,
		PaymentStatus: string(b.PaymentStatus),
		CancelledAt:   b.CancelledAt,
		CreatedAt:     b.CreatedAt,
	}
}

// Create は予約を確定する
// 競合時はエラーハンドラー経由で 409 と利用不能座席リストが返る
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		ShowID:   req.ShowID,
		ViewerID: middleware.ViewerID(c),
		Seats:    req.Seats,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, show.ErrShowNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, show.ErrShowNotOpen):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) GetByTicketID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("ticket_id"))
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) ListMine(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.service.GetViewerBookings(c.Request().Context(), middleware.ViewerID(c), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel は予約を取り消し、座席を利用可能に戻す
func (h *BookingHandler) Cancel(c echo.Context) error {
	b, err := h.service.CancelBooking(c.Request().Context(), c.Param("ticket_id"))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, booking.ErrBookingAlreadyPaid):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

type PaymentResultRequest struct {
	Paid bool `json:"paid"`
}

// RecordPayment は外部決済コラボレーターからの結果通知を記録する
func (h *BookingHandler) RecordPayment(c echo.Context) error {
	var req PaymentResultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	b, err := h.service.RecordPaymentResult(c.Request().Context(), c.Param("ticket_id"), req.Paid)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
