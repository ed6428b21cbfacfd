package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/toodeloo/internal/model"
)

// recordingCollector は記録されたステータスコードを保持するMetricsCollector。
type recordingCollector struct {
	statuses []int
}

func (c *recordingCollector) RecordHTTPStatus(code int) { c.statuses = append(c.statuses, code) }
func (c *recordingCollector) RecordLoginSuccess()       {}
func (c *recordingCollector) RecordLoginFailure(string) {}
func (c *recordingCollector) RecordSessionCreated()     {}
func (c *recordingCollector) RecordSessionDeleted()     {}

// newChain はアプリケーションと同じ順序でミドルウェアを組み立てる。
func newChain(collector *recordingCollector, finder SessionFinder, h http.Handler) http.Handler {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	guarded := NewSessionMiddleware(finder)(h)
	return NewRecoveryMiddleware(logger)(
		NewLoggingMiddleware(logger)(
			NewMetricsMiddleware(collector)(
				NewSecurityHeadersMiddleware(false)(
					NewCORSMiddleware("*")(guarded),
				),
			),
		),
	)
}

// TestMiddlewareChain_ValidSession_PassesThrough は
// 有効なセッションでハンドラーまで到達し、メトリクスとヘッダーが付与されることを検証する。
func TestMiddlewareChain_ValidSession_PassesThrough(t *testing.T) {
	finder := &mockSessionFinder{
		findSessionFn: func(_ context.Context, token string) (*model.Session, error) {
			return &model.Session{ID: "s", SessionToken: token, UserID: "user-chain-test"}, nil
		},
	}
	collector := &recordingCollector{}

	var capturedUserID string
	handler := newChain(collector, finder, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if capturedUserID != "user-chain-test" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-chain-test")
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Error("security headers should be set")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS headers should be set")
	}
	if len(collector.statuses) != 1 || collector.statuses[0] != http.StatusOK {
		t.Errorf("recorded statuses = %v, want [200]", collector.statuses)
	}
}

// TestMiddlewareChain_NoSession_RedirectsAndRecords303 は
// セッションがない場合にリダイレクトされ、303がメトリクスに記録されることを検証する。
func TestMiddlewareChain_NoSession_RedirectsAndRecords303(t *testing.T) {
	collector := &recordingCollector{}
	handler := newChain(collector, &mockSessionFinder{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/books/new", nil))

	assertRedirectToLogin(t, w)
	if len(collector.statuses) != 1 || collector.statuses[0] != http.StatusSeeOther {
		t.Errorf("recorded statuses = %v, want [303]", collector.statuses)
	}
}

// TestMiddlewareChain_Panic_Returns500 はハンドラーのpanicが500に変換されることを検証する。
func TestMiddlewareChain_Panic_Returns500(t *testing.T) {
	finder := &mockSessionFinder{
		findSessionFn: func(_ context.Context, token string) (*model.Session, error) {
			return &model.Session{SessionToken: token, UserID: "u"}, nil
		},
	}
	handler := newChain(&recordingCollector{}, finder, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}

// TestRecoveryMiddleware_RepanicsAbortHandler はhttp.ErrAbortHandlerを握りつぶさないことを検証する。
func TestRecoveryMiddleware_RepanicsAbortHandler(t *testing.T) {
	handler := NewRecoveryMiddleware(slog.New(slog.NewJSONHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

// TestRecoveryMiddleware_LogsToGivenLogger はpanicが指定ロガーに記録され、統一形式の500が返ることを検証する。
func TestRecoveryMiddleware_LogsToGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := NewRecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("template exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/list", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("body = %s, want INTERNAL_ERROR", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "template exploded") {
		t.Error("panic value must not reach the client")
	}
	for _, want := range []string{"panic recovered", "template exploded", "/books/list"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log does not contain %q: %s", want, buf.String())
		}
	}
}
