package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/hitoshi/toodeloo/internal/docstore"
	"github.com/hitoshi/toodeloo/internal/model"
)

// コレクション名
const (
	usersCollection    = "users"
	sessionsCollection = "sessions"
	booksCollection    = "books"
)

// ParseID は識別子文字列を検証して返す。
// 形式不正の文字列をストアに渡すとドライバエラーとなり未検出と区別できないため、
// すべてのID指定クエリの前に呼び出す。
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, model.NewInvalidIDError(s)
	}
	return id, nil
}

// fieldError はドキュメントのフィールドアクセス失敗をKindDataAccessに変換する。
func fieldError(err error) error {
	var fe *docstore.FieldError
	if errors.As(err, &fe) {
		return model.NewDataAccessError(fe.Field, fe.Err)
	}
	return model.NewDataAccessError("", err)
}

// findOneError はFindOneの失敗を未検出またはクエリエラーに変換する。
func findOneError(err error, key string) error {
	if errors.Is(err, docstore.ErrNoDocuments) {
		return model.NewNotFoundError(key)
	}
	return model.NewStoreQueryError(err)
}
