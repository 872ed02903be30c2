package bistro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/logger"
	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/internal/payment"
	"github.com/nao1215/bistro/internal/store"
	"github.com/nao1215/bistro/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

// fakeProvider は受け取った金額を記録する決済プロバイダのモック。
type fakeProvider struct {
	mu      sync.Mutex
	amounts []int64
	err     error
}

func (f *fakeProvider) CreateIntent(_ context.Context, amount int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, amount)
	if f.err != nil {
		return "", f.err
	}
	return "pi_test_secret", nil
}

// recorded はプロバイダに渡された金額の複製を返す。
func (f *fakeProvider) recorded() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.amounts...)
}

// recordingStore は受け取った決済を記録してからSQLiteに委譲するストア。
type recordingStore struct {
	*store.SQLite

	mu       sync.Mutex
	payments []model.Payment
}

func (r *recordingStore) InsertPayment(ctx context.Context, p *model.Payment) (*model.PaymentResult, error) {
	res, err := r.SQLite.InsertPayment(ctx, p)
	if err == nil {
		r.mu.Lock()
		r.payments = append(r.payments, *p)
		r.mu.Unlock()
	}
	return res, err
}

// storedPayments は記録済みの決済の複製を返す。
func (r *recordingStore) storedPayments() []model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Payment(nil), r.payments...)
}

// testEnv はテスト用サーバーと依存関係の組。
type testEnv struct {
	store    *recordingStore
	payments *fakeProvider
	tokens   *middleware.TokenCodec
	handler  http.Handler
}

// setupTestServer はテスト用のbistroサーバーをインメモリSQLiteで構築する。
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	nop := logger.NewNop().Logger
	st, err := store.OpenSQLite(context.Background(), ":memory:", nop)
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	env := &testEnv{
		store:    &recordingStore{SQLite: st},
		payments: &fakeProvider{},
		tokens:   middleware.NewTokenCodec(testSecret, time.Hour),
	}
	env.handler = NewServer(Config{
		Store:       env.store,
		Tokens:      env.tokens,
		Payments:    env.payments,
		Logger:      nop,
		CORSOrigins: []string{"http://localhost:5173"},
	}).Handler()
	return env
}

// token は指定メールアドレスのbearerトークンを発行するヘルパー関数。
func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.tokens.Sign(middleware.Identity{Email: email})
	if err != nil {
		t.Fatalf("トークンの発行に失敗: %v", err)
	}
	return tok
}

// createUser はテスト用にユーザーをDBに直接挿入するヘルパー関数。
func (e *testEnv) createUser(t *testing.T, email string, role model.Role) string {
	t.Helper()
	res, err := e.store.InsertUser(context.Background(), &model.User{Name: email, Email: email, Role: role})
	if err != nil {
		t.Fatalf("テスト用ユーザーの作成に失敗: %v", err)
	}
	return res.InsertedID
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
func (e *testEnv) doRequest(method, path, token string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("レスポンスのパースに失敗: %v (body=%s)", err, w.Body.String())
	}
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("ステータスコードが不正: got=%d, want=%d, body=%s", w.Code, want, w.Body.String())
	}
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	t.Run("ルートパスで稼働メッセージを返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodGet, "/", "", nil)
		assertStatus(t, w, http.StatusOK)
		if w.Body.String() != "bistro boss are running" {
			t.Errorf("本文が不正: got=%q", w.Body.String())
		}
	})

	t.Run("ヘルスチェックが正常を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodGet, "/health", "", nil)
		assertStatus(t, w, http.StatusOK)
		var resp map[string]string
		decode(t, w, &resp)
		if resp["status"] != "ok" || resp["service"] != "bistro" {
			t.Errorf("レスポンスが不正: %v", resp)
		}
	})
}

func TestHandleIssueToken(t *testing.T) {
	t.Parallel()

	t.Run("発行したトークンが検証できメールアドレスを復元できること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/jwt", "", map[string]string{"email": "a@x.com", "name": "Alice"})
		assertStatus(t, w, http.StatusOK)
		var resp map[string]string
		decode(t, w, &resp)

		claims, err := env.tokens.Verify(resp["token"])
		if err != nil {
			t.Fatalf("トークンの検証に失敗: %v", err)
		}
		if claims.Email != "a@x.com" || claims.Name != "Alice" {
			t.Errorf("Identityが不正: %+v", claims.Identity)
		}
	})

	t.Run("メールアドレスが無い場合は400を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/jwt", "", map[string]string{"name": "Alice"})
		assertStatus(t, w, http.StatusBadRequest)
	})
}

func TestAuthenticationGate(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	expired, err := middleware.NewTokenCodec(testSecret, -time.Minute).Sign(middleware.Identity{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("トークンの発行に失敗: %v", err)
	}
	foreign, err := middleware.NewTokenCodec("other-secret", time.Hour).Sign(middleware.Identity{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("トークンの発行に失敗: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "Authorizationヘッダーが無い場合", header: ""},
		{name: "Bearer形式でない場合", header: "Token abc"},
		{name: "トークンが空の場合", header: "Bearer "},
		{name: "トークンが解析できない場合", header: "Bearer not.a.token"},
		{name: "有効期限切れの場合", header: "Bearer " + expired},
		{name: "別の秘密鍵で署名された場合", header: "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name+"は401を返すこと", func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/carts?email=a@x.com", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)

			assertStatus(t, w, http.StatusUnauthorized)
			var resp struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			decode(t, w, &resp)
			if !resp.Error || resp.Message != "unauthorized access" {
				t.Errorf("エラー本文が不正: %+v", resp)
			}
		})
	}
}

func TestAuthorizationGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "ユーザー一覧", method: http.MethodGet, path: "/users"},
		{name: "メニュー追加", method: http.MethodPost, path: "/menu", body: map[string]any{"name": "Pasta"}},
		{name: "メニュー削除", method: http.MethodDelete, path: "/menu/some-id"},
		{name: "管理者への昇格", method: http.MethodPatch, path: "/users/admin/some-id"},
		{name: "ユーザー削除", method: http.MethodDelete, path: "/users/some-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"は一般ユーザーに403を返すこと", func(t *testing.T) {
			t.Parallel()
			env := setupTestServer(t)
			env.createUser(t, "user@x.com", model.RoleDefault)

			w := env.doRequest(tt.method, tt.path, env.token(t, "user@x.com"), tt.body)
			assertStatus(t, w, http.StatusForbidden)
		})

		t.Run(tt.name+"は未登録ユーザーに403を返すこと", func(t *testing.T) {
			t.Parallel()
			env := setupTestServer(t)

			w := env.doRequest(tt.method, tt.path, env.token(t, "ghost@x.com"), tt.body)
			assertStatus(t, w, http.StatusForbidden)
		})

		t.Run(tt.name+"はトークンが無い場合に401を返すこと", func(t *testing.T) {
			t.Parallel()
			env := setupTestServer(t)

			w := env.doRequest(tt.method, tt.path, "", tt.body)
			assertStatus(t, w, http.StatusUnauthorized)
		})
	}

	t.Run("ロールはリクエストごとに参照されること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		id := env.createUser(t, "user@x.com", model.RoleDefault)
		tok := env.token(t, "user@x.com")

		assertStatus(t, env.doRequest(http.MethodGet, "/users", tok, nil), http.StatusForbidden)

		if _, err := env.store.SetUserRole(context.Background(), id, model.RoleAdmin); err != nil {
			t.Fatalf("ロールの更新に失敗: %v", err)
		}
		assertStatus(t, env.doRequest(http.MethodGet, "/users", tok, nil), http.StatusOK)
	})
}

func TestHandleCreateUser(t *testing.T) {
	t.Parallel()

	t.Run("同じメールアドレスで2回登録しても1件だけ保存されること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		body := map[string]string{"name": "Alice", "email": "a@x.com"}

		w := env.doRequest(http.MethodPost, "/users", "", body)
		assertStatus(t, w, http.StatusOK)
		var first model.InsertResult
		decode(t, w, &first)
		if !first.Acknowledged || first.InsertedID == "" {
			t.Errorf("挿入結果が不正: %+v", first)
		}

		w = env.doRequest(http.MethodPost, "/users", "", body)
		assertStatus(t, w, http.StatusOK)
		var second map[string]any
		decode(t, w, &second)
		if second["message"] != "user already exists" {
			t.Errorf("メッセージが不正: %v", second)
		}

		users, err := env.store.ListUsers(context.Background())
		if err != nil {
			t.Fatalf("ユーザー一覧の取得に失敗: %v", err)
		}
		if len(users) != 1 {
			t.Errorf("ユーザー数が不正: got=%d, want=1", len(users))
		}
	})

	t.Run("リクエストで指定したロールは無視されること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/users", "", map[string]string{"email": "a@x.com", "role": "admin"})
		assertStatus(t, w, http.StatusOK)

		u, err := env.store.FindUserByEmail(context.Background(), "a@x.com")
		if err != nil {
			t.Fatalf("ユーザーの取得に失敗: %v", err)
		}
		if u.Role != model.RoleDefault {
			t.Errorf("ロールが不正: got=%q", u.Role)
		}
	})

	t.Run("メールアドレスが無い場合は400を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/users", "", map[string]string{"name": "Alice"})
		assertStatus(t, w, http.StatusBadRequest)
	})
}

func TestAdminUserOperations(t *testing.T) {
	t.Parallel()

	t.Run("管理者はユーザー一覧を取得できること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		env.createUser(t, "admin@x.com", model.RoleAdmin)
		env.createUser(t, "user@x.com", model.RoleDefault)

		w := env.doRequest(http.MethodGet, "/users", env.token(t, "admin@x.com"), nil)
		assertStatus(t, w, http.StatusOK)
		var users []model.User
		decode(t, w, &users)
		if len(users) != 2 {
			t.Errorf("ユーザー数が不正: got=%d, want=2", len(users))
		}
	})

	t.Run("管理者はユーザーを昇格できること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		env.createUser(t, "admin@x.com", model.RoleAdmin)
		id := env.createUser(t, "user@x.com", model.RoleDefault)

		w := env.doRequest(http.MethodPatch, "/users/admin/"+id, env.token(t, "admin@x.com"), nil)
		assertStatus(t, w, http.StatusOK)
		var result model.UpdateResult
		decode(t, w, &result)
		if result.MatchedCount != 1 || result.ModifiedCount != 1 {
			t.Errorf("更新結果が不正: %+v", result)
		}

		w = env.doRequest(http.MethodGet, "/users/admin/user@x.com", env.token(t, "user@x.com"), nil)
		var resp map[string]bool
		decode(t, w, &resp)
		if !resp["admin"] {
			t.Error("昇格後のユーザーが管理者になっていない")
		}
	})

	t.Run("存在しない識別子の昇格と削除は件数0を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		env.createUser(t, "admin@x.com", model.RoleAdmin)
		tok := env.token(t, "admin@x.com")

		w := env.doRequest(http.MethodPatch, "/users/admin/no-such-id", tok, nil)
		assertStatus(t, w, http.StatusOK)
		var upd model.UpdateResult
		decode(t, w, &upd)
		if upd.MatchedCount != 0 || upd.ModifiedCount != 0 {
			t.Errorf("更新結果が不正: %+v", upd)
		}

		w = env.doRequest(http.MethodDelete, "/users/no-such-id", tok, nil)
		assertStatus(t, w, http.StatusOK)
		var del model.DeleteResult
		decode(t, w, &del)
		if del.DeletedCount != 0 {
			t.Errorf("削除件数が不正: got=%d", del.DeletedCount)
		}
	})

	t.Run("管理者はユーザーを削除できること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		env.createUser(t, "admin@x.com", model.RoleAdmin)
		id := env.createUser(t, "user@x.com", model.RoleDefault)

		w := env.doRequest(http.MethodDelete, "/users/"+id, env.token(t, "admin@x.com"), nil)
		assertStatus(t, w, http.StatusOK)
		var del model.DeleteResult
		decode(t, w, &del)
		if del.DeletedCount != 1 {
			t.Errorf("削除件数が不正: got=%d", del.DeletedCount)
		}
	})
}

func TestHandleIsAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		tokenUser string
		path      string
		want      bool
	}{
		{name: "管理者本人はtrueを返すこと", tokenUser: "admin@x.com", path: "/users/admin/admin@x.com", want: true},
		{name: "一般ユーザー本人はfalseを返すこと", tokenUser: "user@x.com", path: "/users/admin/user@x.com", want: false},
		{name: "他人のメールアドレスはfalseを返すこと", tokenUser: "user@x.com", path: "/users/admin/admin@x.com", want: false},
		{name: "未登録ユーザーはfalseを返すこと", tokenUser: "ghost@x.com", path: "/users/admin/ghost@x.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupTestServer(t)
			env.createUser(t, "admin@x.com", model.RoleAdmin)
			env.createUser(t, "user@x.com", model.RoleDefault)

			w := env.doRequest(http.MethodGet, tt.path, env.token(t, tt.tokenUser), nil)
			assertStatus(t, w, http.StatusOK)
			var resp map[string]bool
			decode(t, w, &resp)
			if resp["admin"] != tt.want {
				t.Errorf("admin: got=%v, want=%v", resp["admin"], tt.want)
			}
		})
	}
}

func TestMenuRoundTrip(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	env.createUser(t, "admin@x.com", model.RoleAdmin)
	tok := env.token(t, "admin@x.com")

	w := env.doRequest(http.MethodPost, "/menu", tok, map[string]any{
		"name": "Margherita", "category": "pizza", "price": 12.5, "recipe": "tomato", "image": "https://img/m.png",
	})
	assertStatus(t, w, http.StatusOK)
	var ins model.InsertResult
	decode(t, w, &ins)

	w = env.doRequest(http.MethodGet, "/menu", "", nil)
	assertStatus(t, w, http.StatusOK)
	var items []model.MenuItem
	decode(t, w, &items)
	if len(items) != 1 || items[0].ID != ins.InsertedID || items[0].Name != "Margherita" {
		t.Fatalf("メニュー一覧が不正: %+v", items)
	}

	w = env.doRequest(http.MethodDelete, "/menu/"+ins.InsertedID, tok, nil)
	assertStatus(t, w, http.StatusOK)
	var del model.DeleteResult
	decode(t, w, &del)
	if del.DeletedCount != 1 {
		t.Errorf("削除件数が不正: got=%d", del.DeletedCount)
	}

	w = env.doRequest(http.MethodGet, "/menu", "", nil)
	decode(t, w, &items)
	if len(items) != 0 {
		t.Errorf("削除後もメニューが残っている: %+v", items)
	}

	t.Run("名前が無い場合は400を返すこと", func(t *testing.T) {
		w := env.doRequest(http.MethodPost, "/menu", tok, map[string]any{"price": 1})
		assertStatus(t, w, http.StatusBadRequest)
	})
}

func TestHandleListReviews(t *testing.T) {
	t.Parallel()
	env := setupTestServer(t)

	w := env.doRequest(http.MethodGet, "/reviews", "", nil)
	assertStatus(t, w, http.StatusOK)
	if w.Body.String() != "[]" {
		t.Errorf("空の一覧が不正: got=%s", w.Body.String())
	}

	if _, err := env.store.InsertReview(context.Background(), &model.Review{Name: "Jane", Details: "great", Rating: 5}); err != nil {
		t.Fatalf("テスト用レビューの作成に失敗: %v", err)
	}
	w = env.doRequest(http.MethodGet, "/reviews", "", nil)
	var reviews []model.Review
	decode(t, w, &reviews)
	if len(reviews) != 1 || reviews[0].Name != "Jane" {
		t.Errorf("レビュー一覧が不正: %+v", reviews)
	}
}

func TestCarts(t *testing.T) {
	t.Parallel()

	t.Run("本人のカートだけが返ること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		for _, email := range []string{"a@x.com", "a@x.com", "b@x.com"} {
			w := env.doRequest(http.MethodPost, "/carts", "", map[string]any{
				"menuItemId": "m1", "name": "Soup", "price": 5, "email": email,
			})
			assertStatus(t, w, http.StatusOK)
		}

		w := env.doRequest(http.MethodGet, "/carts?email=a@x.com", env.token(t, "a@x.com"), nil)
		assertStatus(t, w, http.StatusOK)
		var items []model.CartItem
		decode(t, w, &items)
		if len(items) != 2 {
			t.Fatalf("カート項目数が不正: got=%d, want=2", len(items))
		}
		for _, item := range items {
			if item.Email != "a@x.com" {
				t.Errorf("他人のカート項目が含まれている: %+v", item)
			}
		}
	})

	t.Run("他人のメールアドレスを指定すると403を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodGet, "/carts?email=b@x.com", env.token(t, "a@x.com"), nil)
		assertStatus(t, w, http.StatusForbidden)
		var resp map[string]any
		decode(t, w, &resp)
		if resp["message"] != "forbidden access" {
			t.Errorf("メッセージが不正: %v", resp)
		}
	})

	t.Run("メールアドレスを指定しない場合は空配列を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodGet, "/carts", env.token(t, "a@x.com"), nil)
		assertStatus(t, w, http.StatusOK)
		if w.Body.String() != "[]" {
			t.Errorf("本文が不正: got=%s", w.Body.String())
		}
	})

	t.Run("カート項目を削除できること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/carts", "", map[string]any{"name": "Soup", "email": "a@x.com"})
		var ins model.InsertResult
		decode(t, w, &ins)

		w = env.doRequest(http.MethodDelete, "/carts/"+ins.InsertedID, "", nil)
		assertStatus(t, w, http.StatusOK)
		var del model.DeleteResult
		decode(t, w, &del)
		if del.DeletedCount != 1 {
			t.Errorf("削除件数が不正: got=%d", del.DeletedCount)
		}
	})
}

func TestHandleCreatePaymentIntent(t *testing.T) {
	t.Parallel()

	t.Run("価格を最小通貨単位に変換してクライアントシークレットを返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/create-payment-intent", env.token(t, "a@x.com"), map[string]any{"price": 19.99})
		assertStatus(t, w, http.StatusOK)
		var resp map[string]string
		decode(t, w, &resp)
		if resp["clientSecret"] != "pi_test_secret" {
			t.Errorf("clientSecretが不正: %v", resp)
		}
		if len(resp) != 1 {
			t.Errorf("clientSecret以外のフィールドが含まれている: %v", resp)
		}
		if got := env.payments.recorded(); len(got) != 1 || got[0] != 1999 {
			t.Errorf("プロバイダに渡した金額が不正: %v", got)
		}
	})

	t.Run("小数第3位は切り捨てられること", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/create-payment-intent", env.token(t, "a@x.com"), map[string]any{"price": 10.005})
		assertStatus(t, w, http.StatusOK)
		if got := env.payments.recorded(); len(got) != 1 || got[0] != 1000 {
			t.Errorf("金額が不正: got=%v, want=[1000]", got)
		}
	})

	t.Run("価格が0以下の場合はプロバイダを呼ばずに400を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		for _, body := range []map[string]any{{"price": 0}, {"price": -5}, {}} {
			w := env.doRequest(http.MethodPost, "/create-payment-intent", env.token(t, "a@x.com"), body)
			assertStatus(t, w, http.StatusBadRequest)
		}
		if got := env.payments.recorded(); len(got) != 0 {
			t.Errorf("プロバイダが呼ばれている: %v", got)
		}
	})

	t.Run("最小通貨単位がint64に収まらない価格は400を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		for _, price := range []string{"184467440737095516.17", "92233720368547758.08"} {
			w := env.doRequest(http.MethodPost, "/create-payment-intent", env.token(t, "a@x.com"), map[string]any{"price": price})
			assertStatus(t, w, http.StatusBadRequest)
		}
		if got := env.payments.recorded(); len(got) != 0 {
			t.Errorf("プロバイダが呼ばれている: %v", got)
		}
	})

	t.Run("プロバイダのエラーは500を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		env.payments.err = errors.Join(payment.ErrProvider, errors.New("card declined"))

		w := env.doRequest(http.MethodPost, "/create-payment-intent", env.token(t, "a@x.com"), map[string]any{"price": 5})
		assertStatus(t, w, http.StatusInternalServerError)
	})

	t.Run("トークンが無い場合は401を返すこと", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)

		w := env.doRequest(http.MethodPost, "/create-payment-intent", "", map[string]any{"price": 5})
		assertStatus(t, w, http.StatusUnauthorized)
	})
}

func TestHandleCreatePayment(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	ctx := context.Background()
	var cartIDs []string
	for _, name := range []string{"Soup", "Cake"} {
		res, err := env.store.InsertCartItem(ctx, &model.CartItem{Name: name, Email: "a@x.com"})
		if err != nil {
			t.Fatalf("テスト用カート項目の作成に失敗: %v", err)
		}
		cartIDs = append(cartIDs, res.InsertedID)
	}

	w := env.doRequest(http.MethodPost, "/payments", env.token(t, "a@x.com"), map[string]any{
		"email":         "a@x.com",
		"transactionId": "pi_123",
		"price":         12,
		"quantity":      2,
		"cartItems":     cartIDs,
		"menuItems":     []string{"m1", "m2"},
		"itemNames":     []string{"Soup", "Cake"},
		"status":        "service pending",
		"commitState":   "pending",
	})
	assertStatus(t, w, http.StatusOK)

	var result model.PaymentResult
	decode(t, w, &result)
	if !result.InsertedResult.Acknowledged || result.InsertedResult.InsertedID == "" {
		t.Errorf("挿入結果が不正: %+v", result.InsertedResult)
	}
	if result.DeletedResult.DeletedCount != 2 {
		t.Errorf("削除件数が不正: got=%d, want=2", result.DeletedResult.DeletedCount)
	}

	items, err := env.store.ListCartItems(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("カート一覧の取得に失敗: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("決済後もカート項目が残っている: %+v", items)
	}

	// クライアントが送った注文状態はそのまま保存され、内部の確定状態とは混ざらないこと
	stored := env.store.storedPayments()
	if len(stored) != 1 {
		t.Fatalf("保存された決済数が不正: got=%d, want=1", len(stored))
	}
	if stored[0].Status != "service pending" {
		t.Errorf("注文状態が不正: got=%q, want=%q", stored[0].Status, "service pending")
	}
	if stored[0].CommitState != "" {
		t.Errorf("確定状態がリクエストから設定されている: %q", stored[0].CommitState)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/menu", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assertStatus(t, w, http.StatusNoContent)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Originが不正: got=%q", got)
	}
}
