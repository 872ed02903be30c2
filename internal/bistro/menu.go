package bistro

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/model"
)

// handleListMenu は全メニュー項目を返すハンドラを返す。
func (s *Server) handleListMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.store.ListMenuItems(c.Request.Context())
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleCreateMenuItem はメニュー項目を追加するハンドラを返す。
func (s *Server) handleCreateMenuItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var item model.MenuItem
		if err := c.ShouldBindJSON(&item); err != nil {
			abortBadRequest(c, err)
			return
		}
		if item.Name == "" {
			abortBadRequest(c, errors.New("name is required"))
			return
		}
		item.ID = ""

		result, err := s.store.InsertMenuItem(c.Request.Context(), &item)
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleDeleteMenuItem はメニュー項目を削除するハンドラを返す。
func (s *Server) handleDeleteMenuItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.store.DeleteMenuItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
