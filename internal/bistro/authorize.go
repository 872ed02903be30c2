package bistro

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/pkg/middleware"
)

// requireCapability は認証済みユーザーのロールが権限を持つかを確認するGinミドルウェアを返す。
// JWTAuthの後に適用すること。ロールはリクエストごとにストアから取得し、キャッシュしない。
func (s *Server) requireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentity(c)
		if !ok {
			abortWithMessage(c, http.StatusUnauthorized, "unauthorized access")
			return
		}

		user, err := s.store.FindUserByEmail(c.Request.Context(), identity.Email)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				abortForbidden(c)
				return
			}
			abortStoreError(c, err)
			return
		}

		if !user.Role.HasCapability(capability) {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}
