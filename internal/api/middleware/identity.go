package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ViewerIDKey はコンテキストに格納されるビューワーIDのキー
const ViewerIDKey = "viewer_id"

// HeaderViewerID はビューワーIDを運ぶリクエストヘッダー
const HeaderViewerID = "X-Viewer-ID"

// ViewerIdentity はリクエストからビューワーIDを解決するミドルウェア
// 認証は外部コラボレーターの責務であり、ここではヘッダーの受け渡しのみを行う
// ヘッダーがない場合は匿名ビューワーIDを採番し、レスポンスヘッダーで返す
func ViewerIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			viewerID := strings.TrimSpace(c.Request().Header.Get(HeaderViewerID))
			if viewerID == "" {
				viewerID = "anon-" + uuid.New().String()
			}
			c.Set(ViewerIDKey, viewerID)
			c.Response().Header().Set(HeaderViewerID, viewerID)
			return next(c)
		}
	}
}

// ViewerID はコンテキストからビューワーIDを取り出す
func ViewerID(c echo.Context) string {
	if v, ok := c.Get(ViewerIDKey).(string); ok {
		return v
	}
	return ""
}
