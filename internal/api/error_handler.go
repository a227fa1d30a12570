package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error            string   `json:"error"`
	Code             int      `json:"code,omitempty"`
	ConflictingSeats []string `json:"conflicting_seats,omitempty"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// 座席競合は 409 とし、利用不能な座席リストをそのまま返すことで
// 呼び出し側が選択をやり直せるようにする
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    = http.StatusInternalServerError
		message = "内部サーバーエラー"
		seats   []string
	)

	var unavailable *show.SeatUnavailableError
	if errors.As(err, &unavailable) {
		code = http.StatusConflict
		message = unavailable.Error()
		seats = unavailable.Seats
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// JSONレスポンスを返す
	if err := c.JSON(code, ErrorResponse{
		Error:            message,
		Code:             code,
		ConflictingSeats: seats,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
