// bistro APIサーバーのエントリポイント。
// ユーザー・メニュー・レビュー・カート・決済のREST APIを提供する。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/bistro/internal/bistro"
	"github.com/nao1215/bistro/internal/config"
	"github.com/nao1215/bistro/internal/logger"
	"github.com/nao1215/bistro/internal/payment"
	"github.com/nao1215/bistro/internal/store"
	"github.com/nao1215/bistro/pkg/middleware"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	logger := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	st, err := store.Open(ctx, cfg.Database, logger.Logger)
	if err != nil {
		logger.Fatal("failed to open store", "driver", cfg.Database.Driver, "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	if r, ok := st.(store.Reconciler); ok {
		n, err := r.Reconcile(ctx)
		if err != nil {
			logger.Error("failed to reconcile pending payments", "error", err)
		} else if n > 0 {
			logger.Info("pending payments reconciled", "count", n)
		}
	}

	if cfg.Payment.SecretKey == "" {
		logger.Warn("PAYMENT_SECRET_KEY is not set; payment intents will fail")
	}

	server := bistro.NewServer(bistro.Config{
		Store:       st,
		Tokens:      middleware.NewTokenCodec(cfg.Token.Secret, cfg.Token.TTL),
		Payments:    payment.NewStripe(cfg.Payment.SecretKey, cfg.Payment.Currency),
		Logger:      logger.Logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	if err := server.Run(ctx, ":"+cfg.Port, cfg.ShutdownTimeout); err != nil {
		logger.Error("bistro server stopped with error", "error", err)
		return
	}
	logger.Info("shutdown complete")
}
