package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/hitoshi/toodeloo/internal/middleware"
	"github.com/hitoshi/toodeloo/internal/model"
	"github.com/hitoshi/toodeloo/internal/view"
)

// HealthChecker はストアの疎通確認インターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Health はストアへの疎通を確認し、成功時は"OK"を返す。
// GET /health
func Health(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.Ping(r.Context()); err != nil {
			middleware.WriteError(w, r, model.NewStoreConnectionError(err))
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	}
}

// Welcome はトップページを表示する。
// GET /
func Welcome(renderer ViewRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeView(w, r, renderer, http.StatusOK, view.Welcome, view.WelcomeData{
			Title: "Welcome",
			Body:  "To Toodeloo!",
		})
	}
}
