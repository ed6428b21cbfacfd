package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/toodeloo/internal/model"
)

// LoginPath はセッションなしのリクエストのリダイレクト先。
const LoginPath = "/login"

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// kindResponse はエラー種別ごとのHTTPステータスと応答内容。
type kindResponse struct {
	status int
	apiErr model.APIError
}

var internalError = model.APIError{
	Code:     "INTERNAL_ERROR",
	Message:  "内部エラーが発生しました。",
	Category: "system",
	Action:   "しばらく待ってから再度お試しください。",
}

// kindResponses はエラー種別からレスポンスへの対応表。
// 5xxの応答本文は共通の汎用メッセージとし、詳細はログにのみ記録する。
var kindResponses = [...]kindResponse{
	model.KindStoreConnection: {http.StatusInternalServerError, internalError},
	model.KindStoreQuery:      {http.StatusInternalServerError, internalError},
	model.KindDataAccess:      {http.StatusInternalServerError, internalError},
	model.KindNotFound: {http.StatusBadRequest, model.APIError{
		Code:     "NOT_FOUND",
		Message:  "指定された項目が見つかりません。",
		Category: "book",
		Action:   "一覧から項目を選び直してください。",
	}},
	model.KindInvalidID: {http.StatusBadRequest, model.APIError{
		Code:     "INVALID_ID",
		Message:  "IDの形式が正しくありません。",
		Category: "validation",
		Action:   "一覧から項目を選び直してください。",
	}},
	model.KindInvalidCredentials: {http.StatusUnauthorized, model.APIError{
		Code:     "INVALID_CREDENTIALS",
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}},
	model.KindSessionCreate: {http.StatusInternalServerError, internalError},
	model.KindNoSessionFound: {http.StatusSeeOther, model.APIError{
		Code:     "NO_SESSION",
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}},
	model.KindTemplate: {http.StatusInternalServerError, internalError},
	model.KindMalformedRequestBody: {http.StatusBadRequest, model.APIError{
		Code:     "MALFORMED_REQUEST",
		Message:  "入力内容が正しくありません。",
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}},
	model.KindLogout: {http.StatusInternalServerError, internalError},
}

// 対応表が全種別を網羅していない場合はコンパイルエラーになる。
var _ = [1]struct{}{}[len(kindResponses)-int(model.ErrorKindCount)]

// StatusFor はエラー種別に対応するHTTPステータスコードを返す。
// KindNoSessionFoundはリダイレクト（303 See Other）となる。
func StatusFor(kind model.ErrorKind) int {
	if kind < 0 || kind >= model.ErrorKindCount {
		return http.StatusInternalServerError
	}
	return kindResponses[kind].status
}

// WriteError はエラーを種別に応じたHTTPレスポンスに変換して書き込む。
// KindNoSessionFoundはログイン画面へのリダイレクト、型付きでないエラーは500として扱う。
// 5xxの場合はエラーの詳細をログに記録し、応答には含めない。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := model.KindOf(err)
	if !ok {
		logServerError(r, "unclassified", err)
		WriteInternalServerError(w)
		return
	}

	if kind == model.KindNoSessionFound {
		http.Redirect(w, r, LoginPath, StatusFor(kind))
		return
	}

	resp := kindResponses[kind]
	if resp.status >= http.StatusInternalServerError {
		logServerError(r, kind.String(), err)
	}
	apiErr := resp.apiErr
	WriteErrorResponse(w, resp.status, &apiErr)
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	apiErr := internalError
	WriteErrorResponse(w, http.StatusInternalServerError, &apiErr)
}

// NotFoundHandler は未定義ルートに404を返すハンドラー。
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
		Code:     "ROUTE_NOT_FOUND",
		Message:  "ページが見つかりません。",
		Category: "system",
		Action:   "URLを確認してください。",
	})
}

// MethodNotAllowedHandler は未対応メソッドに405を返すハンドラー。
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, http.StatusMethodNotAllowed, &model.APIError{
		Code:     "METHOD_NOT_ALLOWED",
		Message:  "このメソッドは使用できません。",
		Category: "system",
		Action:   "URLとメソッドを確認してください。",
	})
}

func logServerError(r *http.Request, kind string, err error) {
	slog.Error("request failed",
		slog.String("kind", kind),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}
