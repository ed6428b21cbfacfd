package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// corsAllowedMethods はページとフォーム送信で使うメソッド。
const corsAllowedMethods = "GET, POST, OPTIONS"

// NewCORSMiddleware はオリジン間リクエストを許可するミドルウェアを返す。
//
// allowedOriginsは「*」またはカンマ区切りのオリジン一覧。
// 「*」の場合は全オリジンに応答し、Cookie付きのリクエストは許可しない。
// 一覧の場合はリクエストのOriginが一致したときだけそのオリジンを返し、Cookieの送信を許可する。
// プリフライト（Access-Control-Request-Methodを伴うOPTIONS）には204で応答する。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	wildcard := strings.TrimSpace(allowedOrigins) == "*"
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			origins = append(origins, o)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := wildcard

			h := w.Header()
			switch {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			default:
				h.Add("Vary", "Origin")
				if origin != "" && slices.Contains(origins, origin) {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					allowed = true
				}
			}
			if allowed {
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
