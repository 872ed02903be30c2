package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// headerKeyRequestID はリクエストIDを伝播するHTTPヘッダーキー。
const headerKeyRequestID = "X-Request-ID"

// RequestLogger はリクエストごとにメソッド・パス・ステータス・処理時間を
// 構造化ログに出力するGinミドルウェアを返す。
// リクエストIDが無い場合は生成してレスポンスヘッダーに設定する。
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerKeyRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerKeyRequestID, requestID)

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request completed", args...)
		case status >= 400:
			logger.Warn("HTTP request completed", args...)
		default:
			logger.Info("HTTP request completed", args...)
		}
	}
}
