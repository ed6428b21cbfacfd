// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/toodeloo/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookie名。
const SessionCookieName = "toodeloo"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストに認証済みセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionFinder はセッションの検索に必要なインターフェース。
// auth.SessionManagerが実装する。
type SessionFinder interface {
	FindSession(ctx context.Context, token string) (*model.Session, error)
}

// NewSessionMiddleware はCookieからセッショントークンを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みセッションをリクエストコンテキストに注入する。
// Cookieなし・トークン不正・未検出・ストアエラーはいずれもKindNoSessionFoundとして
// ログイン画面にリダイレクトし、拒否理由を区別しない。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからセッショントークンを取得
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteError(w, r, model.NewNoSessionFoundError())
				return
			}

			// 2. セッションの有効性を検証
			session, err := sessionFinder.FindSession(r.Context(), cookie.Value)
			if err != nil || session == nil {
				if err != nil && !model.IsKind(err, model.KindNotFound) {
					slog.Warn("session lookup failed",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
				}
				WriteError(w, r, model.NewNoSessionFoundError())
				return
			}

			// 3. 認証済みセッションをコンテキストに注入
			auth := &model.AuthenticatedSession{
				SessionToken: session.SessionToken,
				UserID:       session.UserID,
			}
			if st := stateFromContext(r.Context()); st != nil {
				st.userID = auth.UserID
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), auth)))
		})
	}
}

// SessionFromContext はリクエストコンテキストから認証済みセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.AuthenticatedSession, error) {
	session, ok := ctx.Value(sessionContextKey).(*model.AuthenticatedSession)
	if !ok || session == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return session, nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	session, err := SessionFromContext(ctx)
	if err != nil || session.UserID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return session.UserID, nil
}

// ContextWithSession はコンテキストに認証済みセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *model.AuthenticatedSession) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
