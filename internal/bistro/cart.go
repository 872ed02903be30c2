package bistro

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/pkg/middleware"
)

// handleCreateCartItem はカートに項目を追加するハンドラを返す。
func (s *Server) handleCreateCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var item model.CartItem
		if err := c.ShouldBindJSON(&item); err != nil {
			abortBadRequest(c, err)
			return
		}
		if item.Email == "" {
			abortBadRequest(c, errors.New("email is required"))
			return
		}
		item.ID = ""

		result, err := s.store.InsertCartItem(c.Request.Context(), &item)
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleListCartItems はクエリパラメータemailのカート項目を返すハンドラを返す。
// emailが無い場合は空配列を返し、トークンのメールアドレスと異なる場合は403を返す。
func (s *Server) handleListCartItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		if email == "" {
			c.JSON(http.StatusOK, []model.CartItem{})
			return
		}

		identity, _ := middleware.GetIdentity(c)
		if identity.Email != email {
			abortForbidden(c)
			return
		}

		items, err := s.store.ListCartItems(c.Request.Context(), email)
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleDeleteCartItem はカート項目を削除するハンドラを返す。
func (s *Server) handleDeleteCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.store.DeleteCartItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
