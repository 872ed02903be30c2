package bistro

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/model"
)

// abortWithMessage はエラー本文 {"error": true, "message": msg} でリクエストを中断する。
func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": true, "message": msg})
}

func abortForbidden(c *gin.Context) {
	abortWithMessage(c, http.StatusForbidden, "forbidden access")
}

func abortBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	abortWithMessage(c, http.StatusBadRequest, err.Error())
}

// abortStoreError はストア操作のエラーをレスポンスに変換する。
// 識別子の形式不正は400、それ以外は500として扱う。
func abortStoreError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, model.ErrInvalidID) {
		abortWithMessage(c, http.StatusBadRequest, "invalid id")
		return
	}
	abortWithMessage(c, http.StatusInternalServerError, "internal server error")
}
