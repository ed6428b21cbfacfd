package repository

import (
	"context"

	"github.com/hitoshi/toodeloo/internal/docstore"
	"github.com/hitoshi/toodeloo/internal/model"
)

const (
	userEmailField    = "email"
	userPasswordField = "password"
)

// UserRepo はドキュメントストアのusersコレクションを使用したユーザーリポジトリ。
type UserRepo struct {
	coll docstore.Collection
}

// NewUserRepo はUserRepoを生成する。
func NewUserRepo(client docstore.Client) *UserRepo {
	return &UserRepo{coll: client.Collection(usersCollection)}
}

// UserFromDocument はドキュメントをUserに変換する。
func UserFromDocument(doc docstore.Document) (*model.User, error) {
	id, err := doc.String(docstore.IDField)
	if err != nil {
		return nil, fieldError(err)
	}
	email, err := doc.String(userEmailField)
	if err != nil {
		return nil, fieldError(err)
	}
	hash, err := doc.String(userPasswordField)
	if err != nil {
		return nil, fieldError(err)
	}

	return &model.User{ID: id, Email: email, PasswordHash: hash}, nil
}

// UserToDocument はUserをドキュメントに変換する。IDが空の場合は_idを含めない。
func UserToDocument(user *model.User) docstore.Document {
	doc := docstore.Document{
		userEmailField:    user.Email,
		userPasswordField: user.PasswordHash,
	}
	if user.ID != "" {
		doc[docstore.IDField] = user.ID
	}
	return doc
}

// FindByEmail はメールアドレスでユーザーを取得する。
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	doc, err := r.coll.FindOne(ctx, docstore.Document{userEmailField: email})
	if err != nil {
		return nil, findOneError(err, email)
	}
	return UserFromDocument(doc)
}

// FindByID は指定IDのユーザーを取得する。
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := r.coll.FindOne(ctx, docstore.Document{docstore.IDField: oid.String()})
	if err != nil {
		return nil, findOneError(err, id)
	}
	return UserFromDocument(doc)
}

// Create はユーザーを作成し、生成されたIDを返す。
func (r *UserRepo) Create(ctx context.Context, user *model.User) (string, error) {
	id, err := r.coll.InsertOne(ctx, UserToDocument(user))
	if err != nil {
		return "", model.NewStoreQueryError(err)
	}
	return id, nil
}

// compile-time interface check
var _ UserRepository = (*UserRepo)(nil)
