package model

import "errors"

var (
	// ErrNotFound は指定した条件のレコードが存在しないことを表す。
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID は識別子の形式がストアの要求を満たさないことを表す。
	ErrInvalidID = errors.New("invalid identifier")
)

// InsertResult は1件挿入の結果。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult は1件更新の結果。
// 対象が存在しない場合もエラーにはならず、MatchedCountが0になる。
type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

// DeleteResult は削除の結果。
// 対象が存在しない場合もエラーにはならず、DeletedCountが0になる。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// PaymentResult は決済の記録とカート削除の結果の組。
type PaymentResult struct {
	InsertedResult InsertResult `json:"insertedResult"`
	DeletedResult  DeleteResult `json:"deletedResult"`
}
