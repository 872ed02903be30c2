package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Stripe はStripeのPaymentIntent APIを使うProvider実装。
type Stripe struct {
	// api はStripe APIクライアント。
	api *client.API
	// currency はPaymentIntentの通貨コード。
	currency string
}

var _ Provider = (*Stripe)(nil)

// StripeOption はStripeクライアントの設定を変更する。
type StripeOption func(*stripe.BackendConfig)

// WithBaseURL はAPIの接続先を変更する。テストでモックサーバーを指す場合に使用する。
func WithBaseURL(url string) StripeOption {
	return func(c *stripe.BackendConfig) {
		c.URL = stripe.String(url)
	}
}

// NewStripe は秘密鍵と通貨コードからStripeクライアントを生成する。
// ネットワークエラー時の自動再試行は無効にする。
func NewStripe(secretKey, currency string, opts ...StripeOption) *Stripe {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &Stripe{api: api, currency: currency}
}

// CreateIntent はカード払いのPaymentIntentを作成し、クライアントシークレットを返す。
func (s *Stripe) CreateIntent(ctx context.Context, amount int64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(s.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return intent.ClientSecret, nil
}
