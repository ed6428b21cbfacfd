package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/toodeloo/internal/auth"
	"github.com/hitoshi/toodeloo/internal/book"
	"github.com/hitoshi/toodeloo/internal/config"
	"github.com/hitoshi/toodeloo/internal/database"
	"github.com/hitoshi/toodeloo/internal/docstore"
	"github.com/hitoshi/toodeloo/internal/handler"
	"github.com/hitoshi/toodeloo/internal/logger"
	"github.com/hitoshi/toodeloo/internal/metrics"
	"github.com/hitoshi/toodeloo/internal/middleware"
	"github.com/hitoshi/toodeloo/internal/model"
	"github.com/hitoshi/toodeloo/internal/repository"
	"github.com/hitoshi/toodeloo/internal/security"
	"github.com/hitoshi/toodeloo/internal/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	storePingTimeout = 5 * time.Second
	shutdownTimeout  = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	if cmd == CommandHelp {
		writeUsage(w)
		return nil
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store", string(cfg.Store)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateUser:
		return runCreateUser(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// openStore は設定に応じたドキュメントストアを開く。
// 返されるclose関数はストアの利用終了時に呼び出すこと。
func openStore(cfg *config.Config) (docstore.Client, func() error, error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return docstore.NewMemory(), func() error { return nil }, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", model.NewStoreConnectionError(err))
	}

	slog.Info("database connection established")
	return docstore.NewPostgres(db), db.Close, nil
}

// services はサーバーとCLIで共有するドメインサービス群。
type services struct {
	users    *repository.UserRepo
	sessions *auth.SessionManager
	auth     *auth.Service
	books    *book.Service
}

func newServices(cfg *config.Config, store docstore.Client, collector metrics.MetricsCollector) *services {
	users := repository.NewUserRepo(store)
	sessions := auth.NewSessionManager(repository.NewSessionRepo(store), collector)

	return &services{
		users:    users,
		sessions: sessions,
		auth:     auth.NewService(users, sessions, collector, auth.ServiceConfig{BcryptCost: cfg.BcryptCost}),
		books:    book.NewService(repository.NewBookRepo(store), security.NewTextSanitizer()),
	}
}

// newRouter は全依存関係をワイヤリングしたHTTPハンドラーを構築する。
// 返されるRateLimiterはサーバー停止時にStopすること。
func newRouter(cfg *config.Config, store docstore.Client, svc *services, reg *prometheus.Registry, collector metrics.MetricsCollector) (http.Handler, *middleware.RateLimiter, error) {
	renderer, err := view.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	limiter := middleware.NewRateLimiter(middleware.LoginRateLimiterConfig(cfg.LoginRateLimit))
	if err := metrics.RegisterLoginLimiterGauge(reg, limiter.LimiterCount); err != nil {
		limiter.Stop()
		return nil, nil, fmt.Errorf("failed to register limiter metrics: %w", err)
	}

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           collector,
		SessionFinder:     svc.sessions,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,

		HealthChecker:  store,
		MetricsHandler: metrics.Handler(reg),

		Renderer: renderer,

		AuthService: svc.auth,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		BookService: svc.books,
		UserFinder:  svc.auth,
	})

	return router, limiter, nil
}

// newRegistry はアプリケーションとランタイムのメトリクスを登録したレジストリを生成する。
func newRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// runServe はHTTPサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストア接続
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. サービスの初期化
	reg, collector := newRegistry()
	svc := newServices(cfg, store, collector)

	if cfg.SeedUserEmail != "" {
		if _, err := ensureUser(context.Background(), svc, cfg.SeedUserEmail, cfg.SeedUserPassword); err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}

	// 3. ルーターの構築
	router, limiter, err := newRouter(cfg, store, svc, reg, collector)
	if err != nil {
		return err
	}
	defer limiter.Stop()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。インメモリストアでは何もしない。
func runMigrate(cfg *config.Config) error {
	if cfg.Store == config.StoreMemory {
		slog.Info("in-memory store needs no migrations")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCreateUser はユーザーを作成する。
// create-user <email> <password>
func runCreateUser(cfg *config.Config, args []string) error {
	if len(args) != 2 || args[0] == "" || args[1] == "" {
		return errors.New("usage: create-user <email> <password>")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := newServices(cfg, store, metrics.Nop{})
	created, err := ensureUser(context.Background(), svc, args[0], args[1])
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("user %s already exists", args[0])
	}
	return nil
}

// ensureUser はメールアドレスに一致するユーザーが存在しなければ作成する。
// 作成した場合はtrueを返す。
func ensureUser(ctx context.Context, svc *services, email, password string) (bool, error) {
	_, err := svc.users.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !model.IsKind(err, model.KindNotFound) {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}

	if _, err := svc.auth.RegisterUser(ctx, email, password); err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	return true, nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
