package model

// User はアプリケーションのユーザー。初回サインイン時に作成される。
type User struct {
	// ID はストアが採番する識別子。
	ID string `json:"_id,omitempty" bson:"_id,omitempty"`
	// Name は表示名。
	Name string `json:"name" bson:"name"`
	// Email はメールアドレス。一意性はストアでは保証しない。
	Email string `json:"email" bson:"email"`
	// Role はユーザーのロール。未設定は一般ユーザー。
	Role Role `json:"role,omitempty" bson:"role,omitempty"`
	// PhotoURL はプロフィール画像のURL。
	PhotoURL string `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
}

// MenuItem はメニューに掲載される料理。
type MenuItem struct {
	ID       string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name     string  `json:"name" bson:"name"`
	Category string  `json:"category" bson:"category"`
	Price    float64 `json:"price" bson:"price"`
	// Recipe は料理の説明文。
	Recipe string `json:"recipe" bson:"recipe"`
	// Image は画像のURL。
	Image string `json:"image" bson:"image"`
}

// Review は顧客のレビュー。このAPIからは参照のみ可能。
type Review struct {
	ID      string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name    string  `json:"name" bson:"name"`
	Details string  `json:"details" bson:"details"`
	Rating  float64 `json:"rating" bson:"rating"`
}

// CartItem はユーザーのカートに入れられたメニュー項目。
// 所有者はEmailで表し、参照時のクエリで所有権を確認する。
type CartItem struct {
	ID         string  `json:"_id,omitempty" bson:"_id,omitempty"`
	MenuItemID string  `json:"menuItemId" bson:"menuItemId"`
	Name       string  `json:"name" bson:"name"`
	Image      string  `json:"image" bson:"image"`
	Price      float64 `json:"price" bson:"price"`
	Email      string  `json:"email" bson:"email"`
}

// CommitState は決済レコードのストア内部の確定状態を表す。
// クライアントが送る注文状態（Payment.Status）とは別に管理する。
type CommitState string

const (
	// PaymentPending は決済を記録したがカートの削除が未完了の状態。
	PaymentPending CommitState = "pending"
	// PaymentCommitted は決済とカートの削除が完了した状態。
	PaymentCommitted CommitState = "committed"
)

// Payment は完了した決済の記録。
// CartItemsに含まれるカート項目は決済の記録と同時に削除される。
type Payment struct {
	ID            string   `json:"_id,omitempty" bson:"_id,omitempty"`
	Email         string   `json:"email" bson:"email"`
	TransactionID string   `json:"transactionId" bson:"transactionId"`
	Price         float64  `json:"price" bson:"price"`
	Date          string   `json:"date,omitempty" bson:"date,omitempty"`
	Quantity      int      `json:"quantity" bson:"quantity"`
	CartItems     []string `json:"cartItems" bson:"cartItems"`
	MenuItems     []string `json:"menuItems,omitempty" bson:"menuItems,omitempty"`
	ItemNames     []string `json:"itemNames,omitempty" bson:"itemNames,omitempty"`
	// Status はフロントエンドが管理する注文状態（例: "service pending"）。送られた値をそのまま保存する。
	Status string `json:"status,omitempty" bson:"status,omitempty"`
	// CommitState はストア内部の確定状態。JSONには現れない。
	CommitState CommitState `json:"-" bson:"commitState,omitempty"`
}
