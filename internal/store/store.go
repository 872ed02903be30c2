// Package store はbistroのデータストアへのアクセスを提供する。
//
// Storeインターフェースをサーバー起動時に1つ生成し、各ハンドラと認可ゲートに
// 注入する。実装はSQLite（既定）とMongoDBの2種類。
// 存在しない識別子に対する更新・削除はエラーにせず、件数0の結果を返す。
package store

import (
	"context"

	"github.com/nao1215/bistro/internal/model"
)

// Store はbistroが使用するデータストア操作の集合。
// 各メソッドはストアへの1回の操作に対応する。InsertPaymentだけは
// 決済の記録とカート削除を1つの単位として実行する。
type Store interface {
	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
	// Close はストアとの接続を閉じる。
	Close(ctx context.Context) error

	// FindUserByEmail はメールアドレスが一致するユーザーを返す。
	// 存在しない場合はmodel.ErrNotFoundを返す。
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	InsertUser(ctx context.Context, u *model.User) (*model.InsertResult, error)
	// SetUserRole は識別子で指定したユーザーのロールを更新する。
	SetUserRole(ctx context.Context, id string, role model.Role) (*model.UpdateResult, error)
	DeleteUser(ctx context.Context, id string) (*model.DeleteResult, error)

	ListMenuItems(ctx context.Context) ([]model.MenuItem, error)
	InsertMenuItem(ctx context.Context, item *model.MenuItem) (*model.InsertResult, error)
	DeleteMenuItem(ctx context.Context, id string) (*model.DeleteResult, error)

	ListReviews(ctx context.Context) ([]model.Review, error)
	InsertReview(ctx context.Context, r *model.Review) (*model.InsertResult, error)

	// ListCartItems は所有者のメールアドレスが一致するカート項目を返す。
	ListCartItems(ctx context.Context, email string) ([]model.CartItem, error)
	InsertCartItem(ctx context.Context, item *model.CartItem) (*model.InsertResult, error)
	DeleteCartItem(ctx context.Context, id string) (*model.DeleteResult, error)

	// InsertPayment は決済を記録し、決済が参照するカート項目を削除する。
	InsertPayment(ctx context.Context, p *model.Payment) (*model.PaymentResult, error)
}
