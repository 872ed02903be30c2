package bistro

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/internal/payment"
)

// paymentIntentRequest はPaymentIntent作成リクエストのJSON構造。
type paymentIntentRequest struct {
	// Price は価格。JSONの数値と文字列のどちらも受け付ける。
	Price decimal.Decimal `json:"price"`
}

// handleCreatePaymentIntent は価格からPaymentIntentを作成し、
// クライアントシークレットだけを返すハンドラを返す。
func (s *Server) handleCreatePaymentIntent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, err)
			return
		}

		amount, err := payment.ToMinorUnits(req.Price)
		if err != nil {
			abortBadRequest(c, err)
			return
		}
		if amount <= 0 {
			abortBadRequest(c, errors.New("price must be positive"))
			return
		}

		clientSecret, err := s.payments.CreateIntent(c.Request.Context(), amount)
		if err != nil {
			_ = c.Error(err)
			abortWithMessage(c, http.StatusInternalServerError, "payment provider error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"clientSecret": clientSecret})
	}
}

// handleCreatePayment は決済を記録し、購入したカート項目を削除するハンドラを返す。
func (s *Server) handleCreatePayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p model.Payment
		if err := c.ShouldBindJSON(&p); err != nil {
			abortBadRequest(c, err)
			return
		}
		p.ID = ""
		p.CommitState = ""

		result, err := s.store.InsertPayment(c.Request.Context(), &p)
		if err != nil {
			abortStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
