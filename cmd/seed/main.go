// メニューとレビューの初期データをストアに投入するツール。
// JSON配列のファイルを読み込み、1件ずつ挿入する。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nao1215/bistro/internal/config"
	"github.com/nao1215/bistro/internal/logger"
	"github.com/nao1215/bistro/internal/model"
	"github.com/nao1215/bistro/internal/store"
)

func main() {
	menuPath := flag.String("menu", "", "メニュー項目のJSONファイル")
	reviewsPath := flag.String("reviews", "", "レビューのJSONファイル")
	flag.Parse()

	if *menuPath == "" && *reviewsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), *menuPath, *reviewsPath); err != nil {
		log.Fatalf("初期データの投入に失敗: %v", err)
	}
}

func run(ctx context.Context, menuPath, reviewsPath string) error {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	logger := logger.New(os.Stderr, "info", "text")

	st, err := store.Open(ctx, *dbCfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(ctx) }()

	if menuPath != "" {
		var items []model.MenuItem
		if err := readJSON(menuPath, &items); err != nil {
			return err
		}
		for i := range items {
			items[i].ID = ""
			if _, err := st.InsertMenuItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		logger.Info("menu items seeded", "count", len(items))
	}

	if reviewsPath != "" {
		var reviews []model.Review
		if err := readJSON(reviewsPath, &reviews); err != nil {
			return err
		}
		for i := range reviews {
			reviews[i].ID = ""
			if _, err := st.InsertReview(ctx, &reviews[i]); err != nil {
				return err
			}
		}
		logger.Info("reviews seeded", "count", len(reviews))
	}
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%sの読み込みに失敗: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%sのパースに失敗: %w", path, err)
	}
	return nil
}
