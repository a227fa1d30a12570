package handler

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	db *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check はヘルスチェックエンドポイント
func (h *HealthHandler) Check(c echo.Context) error {
	status := http.StatusOK
	dbStatus := "ok"

	if h.db != nil {
		if err := h.db.PingContext(c.Request().Context()); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unavailable"
		}
	}

	return c.JSON(status, map[string]string{
		"status":   http.StatusText(status),
		"database": dbStatus,
	})
}
