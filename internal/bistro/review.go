package bistro

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListReviews は全レビューを返すハンドラを返す。
func (s *Server) handleListReviews() gin.HandlerFunc {
	return func(c *gin.Context) {
		reviews, err := s.store.ListReviews(c.Request.Context())
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}
