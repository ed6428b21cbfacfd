package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, book, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ErrorKind はアプリケーション全体で共有するエラー種別。
// 階層を持たないフラットな分類で、HTTPレスポンスへの変換は
// middleware.StatusFor が一元的に行う。
type ErrorKind int

const (
	// KindStoreConnection はドキュメントストアへの接続失敗。
	KindStoreConnection ErrorKind = iota
	// KindStoreQuery はドキュメントストアへのクエリ実行失敗。
	KindStoreQuery
	// KindDataAccess は保存済みドキュメントのフィールド欠落・型不一致。Keyにフィールド名を持つ。
	KindDataAccess
	// KindNotFound は該当ドキュメントなし。Keyに検索キーを持つ。
	KindNotFound
	// KindInvalidID は識別子文字列の形式不正。Keyに入力値を持つ。
	KindInvalidID
	// KindInvalidCredentials はメールアドレスまたはパスワードの不一致。
	KindInvalidCredentials
	// KindSessionCreate はセッション作成の失敗。
	KindSessionCreate
	// KindNoSessionFound は有効なセッションなし。ログイン画面へのリダイレクトに変換される。
	KindNoSessionFound
	// KindTemplate はテンプレートのレンダリング失敗。
	KindTemplate
	// KindMalformedRequestBody はリクエストボディの解析・検証失敗。
	KindMalformedRequestBody
	// KindLogout はログアウト処理（セッション削除）の失敗。
	KindLogout

	// ErrorKindCount は定義済みエラー種別の数。種別を追加する場合は必ずこの直前に追加する。
	ErrorKindCount
)

var errorKindNames = [...]string{
	KindStoreConnection:      "StoreConnectionError",
	KindStoreQuery:           "StoreQueryError",
	KindDataAccess:           "DataAccessError",
	KindNotFound:             "NotFound",
	KindInvalidID:            "InvalidId",
	KindInvalidCredentials:   "InvalidCredentials",
	KindSessionCreate:        "SessionCreateError",
	KindNoSessionFound:       "NoSessionFound",
	KindTemplate:             "TemplateError",
	KindMalformedRequestBody: "MalformedRequestBody",
	KindLogout:               "LogoutError",
}

// 名前テーブルが全種別を網羅していない場合はコンパイルエラーになる。
var _ = [1]struct{}{}[len(errorKindNames)-int(ErrorKindCount)]

// String はエラー種別名を返す。
func (k ErrorKind) String() string {
	if k < 0 || k >= ErrorKindCount {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindNames[k]
}

// Error はアプリケーションの型付きエラー。
// Kindで種別を、Keyで種別ごとの付加情報（フィールド名・検索キー・入力値）を表す。
type Error struct {
	Kind ErrorKind
	Key  string
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindStoreConnection:
		msg = "document store connection error"
	case KindStoreQuery:
		msg = "error during document store query"
	case KindDataAccess:
		msg = fmt.Sprintf("could not access field in document: %s", e.Key)
	case KindNotFound:
		msg = fmt.Sprintf("could not find entry for: %s", e.Key)
	case KindInvalidID:
		msg = fmt.Sprintf("invalid id used: %s", e.Key)
	case KindInvalidCredentials:
		msg = "invalid credentials used"
	case KindSessionCreate:
		msg = "could not create session"
	case KindNoSessionFound:
		msg = "no session found"
	case KindTemplate:
		msg = "templating error"
	case KindMalformedRequestBody:
		msg = "malformed request body"
		if e.Key != "" {
			msg += ": " + e.Key
		}
	case KindLogout:
		msg = "could not log out"
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// Is はKindが一致する*Errorを同一とみなす。
// errors.Is(err, &Error{Kind: KindNotFound}) のように種別で判定できる。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf はエラーチェーンから*Errorを探し、その種別を返す。
// 型付きエラーが含まれない場合はfalseを返す。
func KindOf(err error) (ErrorKind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return 0, false
}

// IsKind はエラーチェーンに指定種別の*Errorが含まれるかを返す。
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// NewStoreConnectionError はストア接続エラーを生成する。
func NewStoreConnectionError(err error) *Error {
	return &Error{Kind: KindStoreConnection, Err: err}
}

// NewStoreQueryError はストアクエリエラーを生成する。
func NewStoreQueryError(err error) *Error {
	return &Error{Kind: KindStoreQuery, Err: err}
}

// NewDataAccessError はフィールドアクセスエラーを生成する。
func NewDataAccessError(field string, err error) *Error {
	return &Error{Kind: KindDataAccess, Key: field, Err: err}
}

// NewNotFoundError は未検出エラーを生成する。
func NewNotFoundError(key string) *Error {
	return &Error{Kind: KindNotFound, Key: key}
}

// NewInvalidIDError は識別子形式エラーを生成する。
func NewInvalidIDError(value string) *Error {
	return &Error{Kind: KindInvalidID, Key: value}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// ユーザー不在とパスワード不一致を区別しないため原因は保持しない。
func NewInvalidCredentialsError() *Error {
	return &Error{Kind: KindInvalidCredentials}
}

// NewSessionCreateError はセッション作成エラーを生成する。
func NewSessionCreateError(err error) *Error {
	return &Error{Kind: KindSessionCreate, Err: err}
}

// NewNoSessionFoundError はセッションなしエラーを生成する。
// 拒否理由を外部に漏らさないため原因は保持しない。
func NewNoSessionFoundError() *Error {
	return &Error{Kind: KindNoSessionFound}
}

// NewTemplateError はテンプレートエラーを生成する。
func NewTemplateError(err error) *Error {
	return &Error{Kind: KindTemplate, Err: err}
}

// NewMalformedRequestBodyError はリクエストボディエラーを生成する。
func NewMalformedRequestBodyError(reason string, err error) *Error {
	return &Error{Kind: KindMalformedRequestBody, Key: reason, Err: err}
}

// NewLogoutError はログアウトエラーを生成する。
func NewLogoutError(err error) *Error {
	return &Error{Kind: KindLogout, Err: err}
}
