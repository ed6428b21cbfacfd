package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/toodeloo/internal/docstore"
	"github.com/hitoshi/toodeloo/internal/model"
)

const (
	bookNameField     = "name"
	bookAuthorField   = "author"
	bookLanguageField = "language"
	bookPagesField    = "num_pages"
	bookAddedAtField  = "added_at"
)

// errNegativePages は保存済みページ数が負の場合の原因エラー。
var errNegativePages = errors.New("page count must not be negative")

// BookRepo はドキュメントストアのbooksコレクションを使用した書籍リポジトリ。
type BookRepo struct {
	coll docstore.Collection
}

// NewBookRepo はBookRepoを生成する。
func NewBookRepo(client docstore.Client) *BookRepo {
	return &BookRepo{coll: client.Collection(booksCollection)}
}

// BookFromDocument はドキュメントをBookに変換する。
func BookFromDocument(doc docstore.Document) (*model.Book, error) {
	id, err := doc.String(docstore.IDField)
	if err != nil {
		return nil, fieldError(err)
	}
	name, err := doc.String(bookNameField)
	if err != nil {
		return nil, fieldError(err)
	}
	author, err := doc.String(bookAuthorField)
	if err != nil {
		return nil, fieldError(err)
	}
	lang, err := doc.String(bookLanguageField)
	if err != nil {
		return nil, fieldError(err)
	}
	pages, err := doc.Int(bookPagesField)
	if err != nil {
		return nil, fieldError(err)
	}
	if pages < 0 {
		return nil, model.NewDataAccessError(bookPagesField, errNegativePages)
	}
	addedAt, err := doc.Time(bookAddedAtField)
	if err != nil {
		return nil, fieldError(err)
	}

	return &model.Book{
		ID:        id,
		Name:      name,
		Author:    author,
		Language:  lang,
		PageCount: int(pages),
		AddedAt:   addedAt,
	}, nil
}

// BookToDocument はBookを正規形のドキュメントに変換する。IDが空の場合は_idを含めない。
// ストアから読み出したドキュメントと同じ型（int64、RFC3339Nano文字列）で出力する。
func BookToDocument(book *model.Book) docstore.Document {
	doc := docstore.Document{
		bookNameField:     book.Name,
		bookAuthorField:   book.Author,
		bookLanguageField: book.Language,
		bookPagesField:    int64(book.PageCount),
		bookAddedAtField:  docstore.FormatTime(book.AddedAt),
	}
	if book.ID != "" {
		doc[docstore.IDField] = book.ID
	}
	return doc
}

// FindByID は指定IDの書籍を取得する。
func (r *BookRepo) FindByID(ctx context.Context, id string) (*model.Book, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := r.coll.FindOne(ctx, docstore.Document{docstore.IDField: oid.String()})
	if err != nil {
		return nil, findOneError(err, id)
	}
	return BookFromDocument(doc)
}

// List は全書籍を登録順で返す。
func (r *BookRepo) List(ctx context.Context) ([]*model.Book, error) {
	docs, err := r.coll.Find(ctx, nil)
	if err != nil {
		return nil, model.NewStoreQueryError(err)
	}

	books := make([]*model.Book, 0, len(docs))
	for _, doc := range docs {
		book, err := BookFromDocument(doc)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// Create は書籍を作成し、生成されたIDを返す。
func (r *BookRepo) Create(ctx context.Context, book *model.Book) (string, error) {
	doc := BookToDocument(book)
	delete(doc, docstore.IDField)

	id, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", model.NewStoreQueryError(err)
	}
	return id, nil
}

// Update は書籍の名前・著者・言語・ページ数を上書きする。登録日時は変更しない。
// 楽観ロックは行わず、同時編集は後勝ちになる。
func (r *BookRepo) Update(ctx context.Context, id string, input model.BookInput) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	matched, err := r.coll.UpdateOne(ctx,
		docstore.Document{docstore.IDField: oid.String()},
		docstore.Document{
			bookNameField:     input.Name,
			bookAuthorField:   input.Author,
			bookLanguageField: input.Language,
			bookPagesField:    int64(input.PageCount),
		},
	)
	if err != nil {
		return model.NewStoreQueryError(err)
	}
	if matched == 0 {
		return model.NewNotFoundError(id)
	}
	return nil
}

// Delete は指定IDの書籍を削除する。
func (r *BookRepo) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	deleted, err := r.coll.DeleteOne(ctx, docstore.Document{docstore.IDField: oid.String()})
	if err != nil {
		return model.NewStoreQueryError(err)
	}
	if deleted == 0 {
		return model.NewNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ BookRepository = (*BookRepo)(nil)
