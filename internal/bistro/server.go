package bistro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/internal/payment"
	"github.com/nao1215/bistro/internal/store"
	"github.com/nao1215/bistro/pkg/middleware"
)

// Server はbistro APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// store は全ハンドラで共有するデータストア。
	store store.Store
	// tokens はbearerトークンの署名と検証を行う。
	tokens *middleware.TokenCodec
	// payments は決済プロバイダ。
	payments payment.Provider
	// logger は構造化ロガー。
	logger *slog.Logger
}

// Config はServerの生成に必要な依存関係。
type Config struct {
	Store       store.Store
	Tokens      *middleware.TokenCodec
	Payments    payment.Provider
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewServer は新しいbistroサーバーを生成する。
func NewServer(cfg Config) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	s := &Server{
		router:   router,
		store:    cfg.Store,
		tokens:   cfg.Tokens,
		payments: cfg.Payments,
		logger:   cfg.Logger,
	}
	s.setupRoutes()

	return s
}

// Handler はサーバーのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はaddrでHTTPサーバーを起動し、ctxがキャンセルされるとシャットダウンする。
// シャットダウンはshutdownTimeout以内に処理中のリクエストを待って完了する。
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("bistro server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down bistro server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	return <-errCh
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	auth := middleware.JWTAuth(s.tokens)
	admin := s.requireCapability(model.CapabilityAdmin)

	// トークン発行
	s.router.POST("/jwt", s.handleIssueToken())

	// ユーザー
	s.router.POST("/users", s.handleCreateUser())
	s.router.GET("/users", auth, admin, s.handleListUsers())
	s.router.GET("/users/admin/:email", auth, s.handleIsAdmin())
	s.router.PATCH("/users/admin/:id", auth, admin, s.handlePromoteUser())
	s.router.DELETE("/users/:id", auth, admin, s.handleDeleteUser())

	// メニュー
	s.router.GET("/menu", s.handleListMenu())
	s.router.POST("/menu", auth, admin, s.handleCreateMenuItem())
	s.router.DELETE("/menu/:id", auth, admin, s.handleDeleteMenuItem())

	// レビュー
	s.router.GET("/reviews", s.handleListReviews())

	// カート
	s.router.POST("/carts", s.handleCreateCartItem())
	s.router.GET("/carts", auth, s.handleListCartItems())
	s.router.DELETE("/carts/:id", s.handleDeleteCartItem())

	// 決済
	s.router.POST("/create-payment-intent", auth, s.handleCreatePaymentIntent())
	s.router.POST("/payments", auth, s.handleCreatePayment())

	// 死活監視
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "bistro boss are running")
	})
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "bistro"})
	})
}
