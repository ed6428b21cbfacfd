// Package docstore はコレクション単位でスキーマレスなドキュメントを保存するストアを提供する。
//
// アプリケーションはClient/Collectionインターフェースのみに依存し、
// 本番ではPostgreSQLのJSONBカラム、テストやローカル開発ではインメモリ実装を使用する。
// ドキュメントは保存時に正規化され、どちらの実装からも同じ型で読み出される
// （文字列、int64、float64、bool、nil、[]any、map[string]any）。
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// IDField はドキュメント識別子のフィールド名。識別子はストアが生成する。
const IDField = "_id"

// ErrNoDocuments はFindOneで一致するドキュメントが存在しない場合に返される。
var ErrNoDocuments = errors.New("docstore: no documents in result")

// ErrDuplicateKey は一意フィールドの値が既存ドキュメントと重複する場合に返される。
var ErrDuplicateKey = errors.New("docstore: duplicate key")

// UniqueKeys はコレクションごとの一意フィールド。
// PostgresではマイグレーションのUNIQUEインデックス、Memoryでは挿入・更新時の検査で保証する。
var UniqueKeys = map[string]string{
	"sessions": "session_token",
	"users":    "email",
}

// Document はストアに保存される1件のドキュメント。
type Document map[string]any

// Collection は名前付きドキュメント集合への操作を提供する。
// フィルタはトップレベルフィールドの等値一致（AND）として評価される。
type Collection interface {
	// FindOne はフィルタに一致する最初のドキュメントを返す。見つからない場合はErrNoDocumentsを返す。
	FindOne(ctx context.Context, filter Document) (Document, error)
	// Find はフィルタに一致する全ドキュメントを挿入順で返す。
	Find(ctx context.Context, filter Document) ([]Document, error)
	// InsertOne はドキュメントを保存し、生成した識別子を返す。
	InsertOne(ctx context.Context, doc Document) (string, error)
	// UpdateOne はフィルタに一致する最初のドキュメントにsetのフィールドを上書きし、一致件数を返す。
	UpdateOne(ctx context.Context, filter Document, set Document) (int64, error)
	// DeleteOne はフィルタに一致する最初のドキュメントを削除し、削除件数を返す。
	DeleteOne(ctx context.Context, filter Document) (int64, error)
}

// Client はドキュメントストアへのハンドル。並行利用に対して安全であること。
type Client interface {
	// Collection は指定名のコレクションを返す。存在しないコレクションは空として扱う。
	Collection(name string) Collection
	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
}

// ErrFieldMissing はドキュメントに必須フィールドが存在しない場合のエラー。
var ErrFieldMissing = errors.New("field is missing")

// ErrFieldType はフィールドの型が期待と異なる場合のエラー。
var ErrFieldType = errors.New("field has unexpected type")

// FieldError はフィールドアクセス失敗の詳細を表す。
type FieldError struct {
	Field string
	Err   error
}

// Error はerrorインターフェースを実装する。
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *FieldError) Unwrap() error {
	return e.Err
}

// String は文字列フィールドを取得する。
func (d Document) String(key string) (string, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return "", &FieldError{Field: key, Err: ErrFieldMissing}
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldError{Field: key, Err: ErrFieldType}
	}
	return s, nil
}

// Int は整数フィールドを取得する。小数部を持つ数値は型不一致として扱う。
func (d Document) Int(key string) (int64, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return 0, &FieldError{Field: key, Err: ErrFieldMissing}
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, &FieldError{Field: key, Err: ErrFieldType}
		}
		return int64(n), nil
	default:
		return 0, &FieldError{Field: key, Err: ErrFieldType}
	}
}

// Time は時刻フィールドを取得する。正規化後の時刻はRFC3339Nano形式の文字列で保存されている。
func (d Document) Time(key string) (time.Time, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return time.Time{}, &FieldError{Field: key, Err: ErrFieldMissing}
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, &FieldError{Field: key, Err: ErrFieldType}
		}
		return parsed, nil
	default:
		return time.Time{}, &FieldError{Field: key, Err: ErrFieldType}
	}
}

// FormatTime は時刻をドキュメント保存用の正規形式に変換する。
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
