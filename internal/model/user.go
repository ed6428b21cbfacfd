// Package model はドメインモデルを定義する。
package model

// User はログイン可能なユーザーを表す。
// 作成はシード投入（create-userサブコマンド）のみで行い、アプリケーションからは読み取り専用。
type User struct {
	ID           string
	Email        string
	PasswordHash string
}

// Session はユーザーのログインセッションを表す。
// SessionTokenはCookieで運ばれる推測不可能なランダム文字列。
type Session struct {
	ID           string
	SessionToken string
	UserID       string
}

// AuthenticatedSession はセッションガードを通過したリクエストに紐づく認証済みセッション。
// リクエストスコープでのみ存在し、永続化はされない。
type AuthenticatedSession struct {
	SessionToken string
	UserID       string
}
