package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// DotEnvFile は起動時に読み込むローカル開発用の環境変数ファイル。
const DotEnvFile = ".env.local"

// StoreKind はドキュメントストアの実装種別。
type StoreKind string

const (
	// StorePostgres はPostgreSQLのJSONBカラムを使うストア。
	StorePostgres StoreKind = "postgres"
	// StoreMemory はプロセス内のインメモリストア。再起動でデータは失われる。
	StoreMemory StoreKind = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	Store       StoreKind
	DatabaseURL string

	// Session
	SessionMaxAge int
	BcryptCost    int

	// Rate Limit
	LoginRateLimit int // ログイン試行の上限（req/min/IP）

	// Logging
	LogLevel slog.Level

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool

	// CORS
	CORSAllowedOrigin string // 「*」またはカンマ区切りのオリジン一覧

	// Seed
	SeedUserEmail    string // 設定時はserve起動時にこのユーザーを作成する（既存なら何もしない）
	SeedUserPassword string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.env.localがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.Store = StoreKind(getEnvString("STORE", string(StorePostgres)))
	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}

	// Required fields
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.Store == StorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: %v", []string{"DATABASE_URL"})
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 1296000)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	cfg.LoginRateLimit = getEnvInt("LOGIN_RATE_LIMIT", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", true)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	cfg.SeedUserEmail = os.Getenv("SEED_USER_EMAIL")
	cfg.SeedUserPassword = os.Getenv("SEED_USER_PASSWORD")
	if (cfg.SeedUserEmail == "") != (cfg.SeedUserPassword == "") {
		return nil, fmt.Errorf("SEED_USER_EMAIL and SEED_USER_PASSWORD must be set together")
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvString("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// loadDotEnv はファイルが存在する場合のみ環境変数として読み込む。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
