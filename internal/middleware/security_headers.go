package middleware

import "net/http"

// pageSecurityHeaders は全レスポンスに付与するヘッダー。
// ページはサーバー側で描画したHTMLとフォームのみで、スクリプトや外部リソースを読み込まない。
var pageSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "same-origin"},
	{"Content-Security-Policy", "default-src 'none'; style-src 'self'; img-src 'self'; form-action 'self'; frame-ancestors 'none'; base-uri 'none'"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
}

// hstsHeader はHTTPS配信時に付与するStrict-Transport-Securityの値。
const hstsHeader = "max-age=31536000"

// NewSecurityHeadersMiddleware はブラウザ向けのセキュリティヘッダーを付与するミドルウェアを返す。
// httpsOnlyがtrueの場合（セッションCookieにSecure属性を付ける運用）はHSTSも付与する。
func NewSecurityHeadersMiddleware(httpsOnly bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range pageSecurityHeaders {
				h.Set(kv[0], kv[1])
			}
			if httpsOnly {
				h.Set("Strict-Transport-Security", hstsHeader)
			}
			next.ServeHTTP(w, r)
		})
	}
}
