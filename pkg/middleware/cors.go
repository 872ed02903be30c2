package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnyOrigin はすべてのオリジンを許可する指定。
const AnyOrigin = "*"

const (
	corsAllowMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type"
	corsMaxAge       = "86400"
)

// corsPolicy はクロスオリジンリクエストを許可するオリジンの集合。
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		if o == AnyOrigin {
			p.anyOrigin = true
			continue
		}
		p.origins[o] = struct{}{}
	}
	return p
}

// allowOrigin はAccess-Control-Allow-Originに設定する値を返す。許可しない場合は空文字列。
func (p corsPolicy) allowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	if p.anyOrigin {
		return AnyOrigin
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORS はSPAのフロントエンドからのクロスオリジンリクエストを許可するGinミドルウェアを返す。
// allowedOriginsに "*" を含めるとすべてのオリジンを許可する。
// OPTIONSのプリフライトはハンドラに渡さず204で応答する。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)

	return func(c *gin.Context) {
		if allow := policy.allowOrigin(c.GetHeader("Origin")); allow != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			if allow != AnyOrigin {
				h.Add("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
