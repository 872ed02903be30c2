package model

// Role はユーザーレコードに保存されるロールを表す。
// 未設定（空文字列）は一般ユーザーを意味する。
type Role string

const (
	// RoleDefault は一般ユーザーのロール。
	RoleDefault Role = ""
	// RoleAdmin は管理者ロール。
	RoleAdmin Role = "admin"
)

// Capability はロールに付与される操作権限を表す。
type Capability string

const (
	// CapabilityAdmin はユーザー管理・メニュー管理を行う権限。
	CapabilityAdmin Capability = "admin"
)

// roleCapabilities はロールごとに付与される権限の一覧。
// ロールの意味はこのテーブルにだけ定義する。
var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {CapabilityAdmin},
}

// HasCapability はロールが指定された権限を持つかを判定する。
func (r Role) HasCapability(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}
