package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/toodeloo/internal/metrics"
	"github.com/hitoshi/toodeloo/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// インフラ
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 画面
	Renderer ViewRenderer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 書籍
	BookService BookServiceInterface
	UserFinder  CurrentUserFinder
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → (保護ルートのみ) Session
//
// ルートはインフラ（/health, /metrics）、公開（/, /login）、保護（/books/*, /logout）の3群に分かれる。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.AuthConfig.CookieSecure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(middleware.NotFoundHandler)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler)

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.AuthConfig)
	bookHandler := NewBookHandler(deps.BookService, deps.UserFinder, deps.Renderer)

	// --- インフラ ---
	r.Get("/health", Health(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---
	r.Get("/", Welcome(deps.Renderer))
	r.Get(middleware.LoginPath, authHandler.LoginForm)
	if deps.RateLimiter != nil {
		r.With(deps.RateLimiter.LoginMiddleware()).Post(middleware.LoginPath, authHandler.Login)
	} else {
		r.Post(middleware.LoginPath, authHandler.Login)
	}

	// --- 認証が必要なルート ---
	// ガードはルート単位で適用されるため、未定義のパスやメソッドはセッション検証より先に404/405となる。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))

		r.Get("/books", bookHandler.List)
		r.Get("/books/list", bookHandler.List)

		r.Get("/books/new", bookHandler.NewForm)
		r.Post("/books/new", bookHandler.Create)

		r.Get("/books/edit/{id}", bookHandler.EditForm)
		r.Post("/books/edit/{id}", bookHandler.Update)

		r.Get("/books/delete/{id}", bookHandler.Delete)

		r.Get("/logout", authHandler.Logout)
	})

	return r
}
