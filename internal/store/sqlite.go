package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite はSQLiteをバックエンドとするStore実装。
type SQLite struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite はSQLiteデータベースを開き、マイグレーションを適用する。
// pathに ":memory:" を指定するとインメモリデータベースになる。
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// 書き込みを直列化し、インメモリDBを単一接続で共有する
	db.SetMaxOpenConns(1)

	if _, err := migration.Run(ctx, db, migrationsFS, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Ping はデータベースへの疎通を確認する。
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (s *SQLite) Close(_ context.Context) error {
	return s.db.Close()
}

// FindUserByEmail はメールアドレスが一致する最初のユーザーを返す。
func (s *SQLite) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, photo_url FROM users WHERE email = ? ORDER BY rowid LIMIT 1`, email)

	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PhotoURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return &u, nil
}

// ListUsers は全ユーザーを登録順に返す。
func (s *SQLite) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, role, photo_url FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PhotoURL); err != nil {
			return nil, fmt.Errorf("ユーザーの読み取りに失敗: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// InsertUser はユーザーを挿入する。
func (s *SQLite) InsertUser(ctx context.Context, u *model.User) (*model.InsertResult, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, photo_url) VALUES (?, ?, ?, ?, ?)`,
		id, u.Name, u.Email, u.Role, u.PhotoURL); err != nil {
		return nil, fmt.Errorf("ユーザーの挿入に失敗: %w", err)
	}
	return inserted(id), nil
}

// SetUserRole はユーザーのロールを更新する。
// 既に同じロールの場合はMatchedCountのみ1になり、ModifiedCountは0になる。
func (s *SQLite) SetUserRole(ctx context.Context, id string, role model.Role) (*model.UpdateResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var matched int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&matched); err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ? AND role <> ?`, role, id, role)
	if err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗: %w", err)
	}
	modified, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return &model.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  matched,
		ModifiedCount: modified,
	}, nil
}

// DeleteUser はユーザーを削除する。
func (s *SQLite) DeleteUser(ctx context.Context, id string) (*model.DeleteResult, error) {
	return s.deleteByID(ctx, "users", id)
}

// ListMenuItems は全メニュー項目を登録順に返す。
func (s *SQLite) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, price, recipe, image FROM menu_items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("メニュー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []model.MenuItem{}
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.Recipe, &m.Image); err != nil {
			return nil, fmt.Errorf("メニュー項目の読み取りに失敗: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// InsertMenuItem はメニュー項目を挿入する。
func (s *SQLite) InsertMenuItem(ctx context.Context, item *model.MenuItem) (*model.InsertResult, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO menu_items (id, name, category, price, recipe, image) VALUES (?, ?, ?, ?, ?, ?)`,
		id, item.Name, item.Category, item.Price, item.Recipe, item.Image); err != nil {
		return nil, fmt.Errorf("メニュー項目の挿入に失敗: %w", err)
	}
	return inserted(id), nil
}

// DeleteMenuItem はメニュー項目を削除する。
func (s *SQLite) DeleteMenuItem(ctx context.Context, id string) (*model.DeleteResult, error) {
	return s.deleteByID(ctx, "menu_items", id)
}

// ListReviews は全レビューを登録順に返す。
func (s *SQLite) ListReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, details, rating FROM reviews ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reviews := []model.Review{}
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.Name, &r.Details, &r.Rating); err != nil {
			return nil, fmt.Errorf("レビューの読み取りに失敗: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// InsertReview はレビューを挿入する。
func (s *SQLite) InsertReview(ctx context.Context, r *model.Review) (*model.InsertResult, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, name, details, rating) VALUES (?, ?, ?, ?)`,
		id, r.Name, r.Details, r.Rating); err != nil {
		return nil, fmt.Errorf("レビューの挿入に失敗: %w", err)
	}
	return inserted(id), nil
}

// ListCartItems は所有者のメールアドレスが一致するカート項目を返す。
func (s *SQLite) ListCartItems(ctx context.Context, email string) ([]model.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, menu_item_id, name, image, price, email FROM cart_items WHERE email = ? ORDER BY rowid`, email)
	if err != nil {
		return nil, fmt.Errorf("カート一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []model.CartItem{}
	for rows.Next() {
		var ci model.CartItem
		if err := rows.Scan(&ci.ID, &ci.MenuItemID, &ci.Name, &ci.Image, &ci.Price, &ci.Email); err != nil {
			return nil, fmt.Errorf("カート項目の読み取りに失敗: %w", err)
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}

// InsertCartItem はカート項目を挿入する。
func (s *SQLite) InsertCartItem(ctx context.Context, item *model.CartItem) (*model.InsertResult, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, menu_item_id, name, image, price, email) VALUES (?, ?, ?, ?, ?, ?)`,
		id, item.MenuItemID, item.Name, item.Image, item.Price, item.Email); err != nil {
		return nil, fmt.Errorf("カート項目の挿入に失敗: %w", err)
	}
	return inserted(id), nil
}

// DeleteCartItem はカート項目を削除する。
func (s *SQLite) DeleteCartItem(ctx context.Context, id string) (*model.DeleteResult, error) {
	return s.deleteByID(ctx, "cart_items", id)
}

// InsertPayment は決済の記録と参照するカート項目の削除を1つのトランザクションで実行する。
// どちらかが失敗した場合は両方とも取り消される。
func (s *SQLite) InsertPayment(ctx context.Context, p *model.Payment) (*model.PaymentResult, error) {
	cartItems, err := marshalStrings(p.CartItems)
	if err != nil {
		return nil, err
	}
	menuItems, err := marshalStrings(p.MenuItems)
	if err != nil {
		return nil, err
	}
	itemNames, err := marshalStrings(p.ItemNames)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (id, email, transaction_id, price, date, quantity, cart_items, menu_items, item_names, status, commit_state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Email, p.TransactionID, p.Price, p.Date, p.Quantity,
		cartItems, menuItems, itemNames, p.Status, model.PaymentCommitted); err != nil {
		return nil, fmt.Errorf("決済の挿入に失敗: %w", err)
	}

	var deleted int64
	if len(p.CartItems) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(p.CartItems)), ",")
		args := make([]any, len(p.CartItems))
		for i, v := range p.CartItems {
			args[i] = v
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("カート項目の削除に失敗: %w", err)
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("削除件数の取得に失敗: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return &model.PaymentResult{
		InsertedResult: *inserted(id),
		DeletedResult:  model.DeleteResult{Acknowledged: true, DeletedCount: deleted},
	}, nil
}

// deleteByID は指定テーブルから識別子が一致する行を削除する。
// tableは呼び出し側の定数のみを受け付ける。
func (s *SQLite) deleteByID(ctx context.Context, table, id string) (*model.DeleteResult, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("%sの削除に失敗: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return &model.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

func inserted(id string) *model.InsertResult {
	return &model.InsertResult{Acknowledged: true, InsertedID: id}
}

func marshalStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("配列のシリアライズに失敗: %w", err)
	}
	return string(b), nil
}
