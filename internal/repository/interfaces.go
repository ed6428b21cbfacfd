// Package repository はドキュメントストアと型付きエンティティの相互変換、および永続化操作を提供する。
//
// すべての操作は次の規約に従う:
//   - 識別子文字列はクエリ発行前にParseIDで検証し、形式不正はKindInvalidIDを返す。
//   - 単一エンティティ取得で一致なしの場合はKindNotFoundを返す（空の成功は返さない）。
//   - ストアの例外はKindStoreQueryとして返し、握りつぶさない。
//   - 必須フィールドの欠落・型不一致はフィールド名付きのKindDataAccessを返す。
package repository

import (
	"context"

	"github.com/hitoshi/toodeloo/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByID は指定IDのユーザーを取得する。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// Create はユーザーを作成し、生成されたIDを返す。シード投入専用。
	Create(ctx context.Context, user *model.User) (string, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成し、生成されたIDを返す。
	Create(ctx context.Context, session *model.Session) (string, error)
	// FindByToken はセッショントークンでセッションを取得する。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	// DeleteByToken はセッショントークンに一致するセッションを削除する。該当なしはエラーにしない。
	DeleteByToken(ctx context.Context, token string) error
}

// BookRepository は書籍データの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの書籍を取得する。
	FindByID(ctx context.Context, id string) (*model.Book, error)
	// List は全書籍を登録順で返す。
	List(ctx context.Context) ([]*model.Book, error)
	// Create は書籍を作成し、生成されたIDを返す。
	Create(ctx context.Context, book *model.Book) (string, error)
	// Update は書籍の編集可能フィールドを上書きする。
	Update(ctx context.Context, id string, input model.BookInput) error
	// Delete は指定IDの書籍を削除する。
	Delete(ctx context.Context, id string) error
}
