// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/toodeloo/internal/auth"
	"github.com/hitoshi/toodeloo/internal/middleware"
	"github.com/hitoshi/toodeloo/internal/model"
	"github.com/hitoshi/toodeloo/internal/view"
)

const (
	formEmail    = "email"
	formPassword = "password"

	invalidCredentialsMessage = "Invalid email or password."
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, session *model.AuthenticatedSession) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer ViewRenderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer ViewRenderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		renderer: renderer,
		config:   config,
	}
}

// LoginForm はログインフォームを表示する。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeView(w, r, h.renderer, http.StatusOK, view.Login, view.LoginData{})
}

// Login はメールアドレスとパスワードを検証し、セッションCookieを発行する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteError(w, r, model.NewMalformedRequestBodyError("form", err))
		return
	}
	email := r.PostForm.Get(formEmail)
	password := r.PostForm.Get(formPassword)

	result, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		if model.IsKind(err, model.KindInvalidCredentials) {
			writeView(w, r, h.renderer, http.StatusUnauthorized, view.Login, view.LoginData{
				Email: email,
				Error: invalidCredentialsMessage,
			})
			return
		}
		middleware.WriteError(w, r, err)
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
	})

	writeView(w, r, h.renderer, http.StatusOK, view.LoggedIn, view.LoggedInData{Email: result.User.Email})
}

// Logout はセッションを破棄し、Cookieを削除してログイン画面へリダイレクトする。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, r, model.NewNoSessionFoundError())
		return
	}

	if err := h.service.Logout(r.Context(), session); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
	})

	slog.Debug("session cookie cleared")
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}
