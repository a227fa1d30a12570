package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Arjit20/Cine-Book/internal/api/middleware"
	"github.com/Arjit20/Cine-Book/internal/domain/show"
	"github.com/Arjit20/Cine-Book/internal/realtime"
)

type StreamHandler struct {
	hub   *realtime.ShowHub
	shows ShowServiceInterface
}

func NewStreamHandler(hub *realtime.ShowHub, shows ShowServiceInterface) *StreamHandler {
	return &StreamHandler{hub: hub, shows: shows}
}

// Stream は座席状態変化をSSEで配信する
// 接続直後に座席マップ全体のスナップショットを送り、以降は差分イベントを流す。
// 切断時にはセッションが破棄され、ビューワーの保留は解放される
func (h *StreamHandler) Stream(c echo.Context) error {
	showID := c.Param("id")
	viewerID := middleware.ViewerID(c)

	// 存在しない上映回への購読は拒否
	snapshot, err := h.shows.SeatMap(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "ストリーミング非対応")
	}

	// 初期スナップショット
	if err := writeSSE(res, "snapshot", snapshot); err != nil {
		return nil
	}
	flusher.Flush()

	session := h.hub.Attach(showID, viewerID)
	defer h.hub.Detach(session)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-session.Events():
			if !ok {
				return nil
			}
			if err := writeSSE(res, string(ev.Type), ev); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeSSE(res *echo.Response, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data)
	return err
}
