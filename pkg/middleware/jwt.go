package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed はトークンを解析できないことを表す。
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenExpired はトークンの有効期限が切れていることを表す。
	ErrTokenExpired = errors.New("token is expired")
	// ErrTokenInvalidSignature は署名が一致しないことを表す。
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
)

// Identity はトークンから復元したリクエスト元の身元。
// リクエストごとに生成され、永続化されない。
type Identity struct {
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Name はユーザーの表示名。
	Name string `json:"name,omitempty"`
}

// Claims はbearerトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	Identity
}

// TokenCodec はIdentityを署名付きのbearerトークンに変換し、また検証する。
// 秘密鍵はプロセス全体で共有する。
type TokenCodec struct {
	// secret はHMAC署名用の秘密鍵。
	secret []byte
	// ttl はトークンの有効期間。
	ttl time.Duration
	// now は現在時刻を返す関数。テストで差し替える。
	now func() time.Time
}

// NewTokenCodec は新しいTokenCodecを生成する。
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Sign はIdentityに発行日時と有効期限を付けて署名したトークンを返す。
func (tc *TokenCodec) Sign(id Identity) (string, error) {
	now := tc.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.ttl)),
		},
		Identity: id,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、署名時のクレームを返す。
// 失敗理由はErrTokenMalformed、ErrTokenExpired、ErrTokenInvalidSignatureのいずれか。
func (tc *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("署名方式が不正です: %v", t.Header["alg"])
		}
		return tc.secret, nil
	}, jwt.WithTimeFunc(tc.now), jwt.WithExpirationRequired())
	if err == nil {
		return claims, nil
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalidSignature, err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// contextKeyIdentity はGinコンテキストにIdentityを格納するためのキー。
const contextKeyIdentity = "identity"

// JWTAuth はbearerトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストにIdentityを設定する。
func JWTAuth(codec *TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c)
			return
		}

		// スキーム名は大文字小文字を区別しない
		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := codec.Verify(tokenString)
		if err != nil {
			_ = c.Error(err)
			abortUnauthorized(c)
			return
		}

		c.Set(contextKeyIdentity, claims.Identity)
		c.Next()
	}
}

// GetIdentity はGinコンテキストからIdentityを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// abortUnauthorized は401でリクエストを中断する。
func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   true,
		"message": "unauthorized access",
	})
}
