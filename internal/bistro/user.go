package bistro

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/pkg/middleware"
)

// handleIssueToken はリクエストボディのユーザー情報に署名したトークンを発行するハンドラを返す。
func (s *Server) handleIssueToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var identity middleware.Identity
		if err := c.ShouldBindJSON(&identity); err != nil {
			abortBadRequest(c, err)
			return
		}
		if identity.Email == "" {
			abortBadRequest(c, errors.New("email is required"))
			return
		}

		token, err := s.tokens.Sign(identity)
		if err != nil {
			_ = c.Error(err)
			abortWithMessage(c, http.StatusInternalServerError, "internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// handleCreateUser はユーザーを登録するハンドラを返す。
// 同じメールアドレスのユーザーが既に存在する場合は挿入せずにメッセージを返す。
func (s *Server) handleCreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user model.User
		if err := c.ShouldBindJSON(&user); err != nil {
			abortBadRequest(c, err)
			return
		}
		if user.Email == "" {
			abortBadRequest(c, errors.New("email is required"))
			return
		}
		// ロールは昇格操作でのみ変更する
		user.ID = ""
		user.Role = model.RoleDefault

		_, err := s.store.FindUserByEmail(c.Request.Context(), user.Email)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"message": "user already exists"})
			return
		case !errors.Is(err, model.ErrNotFound):
			abortStoreError(c, err)
			return
		}

		result, err := s.store.InsertUser(c.Request.Context(), &user)
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleListUsers は全ユーザーを返すハンドラを返す。
func (s *Server) handleListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.store.ListUsers(c.Request.Context())
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// handleIsAdmin は指定メールアドレスのユーザーが管理者かを返すハンドラを返す。
// トークンのメールアドレスと一致しない場合はストアを参照せずにfalseを返す。
func (s *Server) handleIsAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")
		identity, _ := middleware.GetIdentity(c)
		if identity.Email != email {
			c.JSON(http.StatusOK, gin.H{"admin": false})
			return
		}

		user, err := s.store.FindUserByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				c.JSON(http.StatusOK, gin.H{"admin": false})
				return
			}
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"admin": user.Role.HasCapability(model.CapabilityAdmin)})
	}
}

// handlePromoteUser はユーザーを管理者に昇格するハンドラを返す。
// 存在しない識別子の場合も件数0の結果をそのまま返す。
func (s *Server) handlePromoteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.store.SetUserRole(c.Request.Context(), c.Param("id"), model.RoleAdmin)
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleDeleteUser はユーザーを削除するハンドラを返す。
func (s *Server) handleDeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.store.DeleteUser(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
