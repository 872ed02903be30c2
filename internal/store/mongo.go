package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nao1215/bistro/internal/model"
)

// MongoDBのコレクション名。
const (
	collectionUsers    = "users"
	collectionMenu     = "menu"
	collectionReviews  = "reviews"
	collectionCarts    = "carts"
	collectionPayments = "payments"
)

// Mongo はMongoDBをバックエンドとするStore実装。
//
// MongoDBはレプリカセット以外ではトランザクションを使えないため、
// InsertPaymentは決済をpending状態で記録し、カート削除後にcommittedへ更新する。
// 途中で失敗したpendingの決済はReconcileでカート削除をやり直す。
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

var _ Store = (*Mongo)(nil)

// OpenMongo はMongoDBに接続し、疎通を確認する。
func OpenMongo(ctx context.Context, uri, dbName string, logger *slog.Logger) (*Mongo, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("MongoDBへの接続に失敗: %w", err)
	}

	m := &Mongo{client: client, db: client.Database(dbName), logger: logger}
	if err := m.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

// Ping はMongoDBへの疎通を確認する。
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("MongoDBへの疎通確認に失敗: %w", err)
	}
	return nil
}

// Close はMongoDBとの接続を閉じる。
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// FindUserByEmail はメールアドレスが一致するユーザーを返す。
func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := m.db.Collection(collectionUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return &u, nil
}

// ListUsers は全ユーザーを返す。
func (m *Mongo) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := m.findAll(ctx, collectionUsers, bson.M{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// InsertUser はユーザーを挿入する。
func (m *Mongo) InsertUser(ctx context.Context, u *model.User) (*model.InsertResult, error) {
	return m.insertOne(ctx, collectionUsers, u)
}

// SetUserRole はユーザーのロールを更新する。
func (m *Mongo) SetUserRole(ctx context.Context, id string, role model.Role) (*model.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	res, err := m.db.Collection(collectionUsers).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗: %w", err)
	}

	result := &model.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if upserted, ok := res.UpsertedID.(primitive.ObjectID); ok {
		hex := upserted.Hex()
		result.UpsertedID = &hex
	}
	return result, nil
}

// DeleteUser はユーザーを削除する。
func (m *Mongo) DeleteUser(ctx context.Context, id string) (*model.DeleteResult, error) {
	return m.deleteOne(ctx, collectionUsers, id)
}

// ListMenuItems は全メニュー項目を返す。
func (m *Mongo) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	items := []model.MenuItem{}
	if err := m.findAll(ctx, collectionMenu, bson.M{}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertMenuItem はメニュー項目を挿入する。
func (m *Mongo) InsertMenuItem(ctx context.Context, item *model.MenuItem) (*model.InsertResult, error) {
	return m.insertOne(ctx, collectionMenu, item)
}

// DeleteMenuItem はメニュー項目を削除する。
func (m *Mongo) DeleteMenuItem(ctx context.Context, id string) (*model.DeleteResult, error) {
	return m.deleteOne(ctx, collectionMenu, id)
}

// ListReviews は全レビューを返す。
func (m *Mongo) ListReviews(ctx context.Context) ([]model.Review, error) {
	reviews := []model.Review{}
	if err := m.findAll(ctx, collectionReviews, bson.M{}, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// InsertReview はレビューを挿入する。
func (m *Mongo) InsertReview(ctx context.Context, r *model.Review) (*model.InsertResult, error) {
	return m.insertOne(ctx, collectionReviews, r)
}

// ListCartItems は所有者のメールアドレスが一致するカート項目を返す。
func (m *Mongo) ListCartItems(ctx context.Context, email string) ([]model.CartItem, error) {
	items := []model.CartItem{}
	if err := m.findAll(ctx, collectionCarts, bson.M{"email": email}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertCartItem はカート項目を挿入する。
func (m *Mongo) InsertCartItem(ctx context.Context, item *model.CartItem) (*model.InsertResult, error) {
	return m.insertOne(ctx, collectionCarts, item)
}

// DeleteCartItem はカート項目を削除する。
func (m *Mongo) DeleteCartItem(ctx context.Context, id string) (*model.DeleteResult, error) {
	return m.deleteOne(ctx, collectionCarts, id)
}

// InsertPayment は決済をpending状態で記録し、参照するカート項目を削除してから
// committedに更新する。カート削除が失敗した場合、決済はpendingのまま残り、
// 次回のReconcileで削除がやり直される。
func (m *Mongo) InsertPayment(ctx context.Context, p *model.Payment) (*model.PaymentResult, error) {
	cartIDs, err := objectIDs(p.CartItems)
	if err != nil {
		return nil, err
	}

	pending := *p
	pending.CommitState = model.PaymentPending
	ins, err := m.insertOne(ctx, collectionPayments, &pending)
	if err != nil {
		return nil, err
	}

	deleted, err := m.commitPayment(ctx, ins.InsertedID, cartIDs)
	if err != nil {
		return nil, err
	}
	return &model.PaymentResult{InsertedResult: *ins, DeletedResult: *deleted}, nil
}

// Reconcile はpendingのまま残った決済について、カート削除とcommittedへの更新をやり直す。
// カート削除は冪等なので何度実行してもよい。処理した決済の件数を返す。
func (m *Mongo) Reconcile(ctx context.Context) (int, error) {
	cur, err := m.db.Collection(collectionPayments).Find(ctx, bson.M{"commitState": model.PaymentPending})
	if err != nil {
		return 0, fmt.Errorf("未確定の決済の検索に失敗: %w", err)
	}
	var pending []model.Payment
	if err := cur.All(ctx, &pending); err != nil {
		return 0, fmt.Errorf("未確定の決済の読み取りに失敗: %w", err)
	}

	n := 0
	for _, p := range pending {
		cartIDs, err := objectIDs(p.CartItems)
		if err != nil {
			m.logger.Warn("skipping payment with invalid cart item id", "payment_id", p.ID, "error", err)
			continue
		}
		if _, err := m.commitPayment(ctx, p.ID, cartIDs); err != nil {
			return n, err
		}
		m.logger.Info("pending payment reconciled", "payment_id", p.ID)
		n++
	}
	return n, nil
}

// commitPayment はカート項目を削除し、決済をcommittedに更新する。
func (m *Mongo) commitPayment(ctx context.Context, paymentID string, cartIDs []primitive.ObjectID) (*model.DeleteResult, error) {
	oid, err := objectID(paymentID)
	if err != nil {
		return nil, err
	}

	res, err := m.db.Collection(collectionCarts).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": cartIDs}})
	if err != nil {
		return nil, fmt.Errorf("カート項目の削除に失敗: %w", err)
	}

	if _, err := m.db.Collection(collectionPayments).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"commitState": model.PaymentCommitted}}); err != nil {
		return nil, fmt.Errorf("決済の確定に失敗: %w", err)
	}
	return &model.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// findAll はfilterに一致する全ドキュメントをresultsにデコードする。
func (m *Mongo) findAll(ctx context.Context, collection string, filter bson.M, results any) error {
	cur, err := m.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("%sの検索に失敗: %w", collection, err)
	}
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("%sの読み取りに失敗: %w", collection, err)
	}
	return nil
}

// insertOne はvを新しいObjectIDで挿入する。
func (m *Mongo) insertOne(ctx context.Context, collection string, v any) (*model.InsertResult, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ドキュメントのシリアライズに失敗: %w", err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ドキュメントの変換に失敗: %w", err)
	}
	oid := primitive.NewObjectID()
	doc["_id"] = oid

	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("%sへの挿入に失敗: %w", collection, err)
	}
	return &model.InsertResult{Acknowledged: true, InsertedID: oid.Hex()}, nil
}

// deleteOne は識別子が一致するドキュメントを1件削除する。
func (m *Mongo) deleteOne(ctx context.Context, collection, id string) (*model.DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("%sの削除に失敗: %w", collection, err)
	}
	return &model.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", model.ErrInvalidID, id)
	}
	return oid, nil
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	return oids, nil
}
