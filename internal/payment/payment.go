// Package payment は決済プロバイダとの連携を提供する。
//
// 価格を最小通貨単位の金額に変換し、カード払いのPaymentIntentを作成して
// クライアントシークレットを返す。失敗時の再試行は行わない。
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrProvider は決済プロバイダの呼び出しが失敗したことを表す。
	ErrProvider = errors.New("payment provider error")
	// ErrAmountOutOfRange は変換後の金額がint64に収まらないことを表す。
	ErrAmountOutOfRange = errors.New("amount is out of range")
)

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// Provider は決済プロバイダの操作。
type Provider interface {
	// CreateIntent は最小通貨単位の金額でカード払いのPaymentIntentを作成し、
	// クライアントシークレットを返す。
	CreateIntent(ctx context.Context, amount int64) (string, error)
}

// ToMinorUnits は価格を最小通貨単位（セント等）に変換する。
// 小数第3位以下は丸めずに0方向へ切り捨てる（10.005 → 1000）。
// int64に収まらない場合はErrAmountOutOfRangeを返す。
func ToMinorUnits(price decimal.Decimal) (int64, error) {
	amount := price.Shift(2).Truncate(0)
	if amount.GreaterThan(maxAmount) || amount.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, price)
	}
	return amount.IntPart(), nil
}
