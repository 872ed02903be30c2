package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/bistro/internal/config"
)

// Reconciler は途中で中断された決済を確定させる処理を持つストア。
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Open は設定に従ってStoreを生成する。
func Open(ctx context.Context, cfg config.Database, logger *slog.Logger) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		st, err = OpenSQLite(ctx, cfg.SQLitePath, logger)
	case config.DriverMongo:
		st, err = OpenMongo(ctx, cfg.MongoURIString(), cfg.Name, logger)
	default:
		return nil, fmt.Errorf("未対応のストアです: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}
