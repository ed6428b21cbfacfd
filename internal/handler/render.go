package handler

import (
	"io"
	"net/http"

	"github.com/hitoshi/toodeloo/internal/middleware"
)

// ViewRenderer はハンドラーが必要とするテンプレート描画インターフェース。
type ViewRenderer interface {
	Render(name string, data any) (string, error)
}

// writeView はビューを描画してHTMLとして書き込む。
// 描画に失敗した場合はステータスを書き込む前にエラーレスポンスへ切り替える。
func writeView(w http.ResponseWriter, r *http.Request, renderer ViewRenderer, status int, name string, data any) {
	html, err := renderer.Render(name, data)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, html)
}
