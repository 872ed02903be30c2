// Package config は環境変数からサーバー設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ストアの種類。
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config はサーバー全体の設定。
type Config struct {
	Port            string        `env:"PORT" envDefault:"5000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Database        Database
	Token           Token
	Payment         Payment `envPrefix:"PAYMENT_"`
}

// Database はストアの接続設定。
type Database struct {
	Driver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"bistro.db"`
	User       string `env:"DB_USER"`
	Password   string `env:"DB_PASS"`
	Cluster    string `env:"DB_CLUSTER"`
	Name       string `env:"DB_NAME" envDefault:"bistroBossDb"`
	MongoURI   string `env:"MONGO_URI"`
}

// Token はbearerトークンの設定。
type Token struct {
	Secret string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	TTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
}

// Payment は決済プロバイダの設定。
type Payment struct {
	SecretKey string `env:"SECRET_KEY"`
	Currency  string `env:"CURRENCY" envDefault:"usd"`
}

// Load はカレントディレクトリの.envファイル（存在する場合）と環境変数から設定を読み込む。
// 既に設定されている環境変数は.envの値で上書きされない。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}
	return Parse()
}

// Parse は環境変数のみから設定を読み込む。
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("設定の解析に失敗: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverMongo:
		if c.Database.MongoURI == "" && c.Database.Cluster == "" {
			return errors.New("DB_DRIVER=mongo の場合はMONGO_URIまたはDB_CLUSTERが必要です")
		}
	default:
		return fmt.Errorf("未対応のDB_DRIVERです: %q", c.Database.Driver)
	}
	if c.Token.TTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTLは正の値である必要があります: %s", c.Token.TTL)
	}
	return nil
}

// MongoURIString はMongoDBの接続URIを返す。
// MONGO_URIが無い場合は認証情報とクラスタアドレスからSRV形式のURIを組み立てる。
func (d Database) MongoURIString() string {
	if d.MongoURI != "" {
		return d.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Cluster,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// LoadDatabase は.envファイルと環境変数からストアの接続設定だけを読み込む。
// トークンや決済の設定を必要としないツールで使用する。
func LoadDatabase() (*Database, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}
	db := Database{}
	if err := env.Parse(&db); err != nil {
		return nil, fmt.Errorf("設定の解析に失敗: %w", err)
	}
	return &db, nil
}
