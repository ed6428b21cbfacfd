package repository

import (
	"context"

	"github.com/hitoshi/toodeloo/internal/docstore"
	"github.com/hitoshi/toodeloo/internal/model"
)

const (
	sessionTokenField  = "session_token"
	sessionUserIDField = "user_id"
)

// sessionNotFoundKey はセッション未検出時のキー。トークン自体をエラー文字列に含めない。
const sessionNotFoundKey = "session"

// SessionRepo はドキュメントストアのsessionsコレクションを使用したセッションリポジトリ。
type SessionRepo struct {
	coll docstore.Collection
}

// NewSessionRepo はSessionRepoを生成する。
func NewSessionRepo(client docstore.Client) *SessionRepo {
	return &SessionRepo{coll: client.Collection(sessionsCollection)}
}

// SessionFromDocument はドキュメントをSessionに変換する。
func SessionFromDocument(doc docstore.Document) (*model.Session, error) {
	id, err := doc.String(docstore.IDField)
	if err != nil {
		return nil, fieldError(err)
	}
	token, err := doc.String(sessionTokenField)
	if err != nil {
		return nil, fieldError(err)
	}
	userID, err := doc.String(sessionUserIDField)
	if err != nil {
		return nil, fieldError(err)
	}

	return &model.Session{ID: id, SessionToken: token, UserID: userID}, nil
}

// SessionToDocument はSessionをドキュメントに変換する。IDが空の場合は_idを含めない。
func SessionToDocument(session *model.Session) docstore.Document {
	doc := docstore.Document{
		sessionTokenField:  session.SessionToken,
		sessionUserIDField: session.UserID,
	}
	if session.ID != "" {
		doc[docstore.IDField] = session.ID
	}
	return doc
}

// Create はセッションを作成し、生成されたIDを返す。
// UserIDが識別子として不正な場合はKindInvalidIDを返す。
func (r *SessionRepo) Create(ctx context.Context, session *model.Session) (string, error) {
	userID, err := ParseID(session.UserID)
	if err != nil {
		return "", err
	}

	doc := SessionToDocument(&model.Session{
		SessionToken: session.SessionToken,
		UserID:       userID.String(),
	})
	id, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", model.NewStoreQueryError(err)
	}
	return id, nil
}

// FindByToken はセッショントークンでセッションを取得する。
func (r *SessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	doc, err := r.coll.FindOne(ctx, docstore.Document{sessionTokenField: token})
	if err != nil {
		return nil, findOneError(err, sessionNotFoundKey)
	}
	return SessionFromDocument(doc)
}

// DeleteByToken はセッショントークンに一致するセッションを削除する。
// 該当するセッションが存在しない場合もエラーにしない。
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.coll.DeleteOne(ctx, docstore.Document{sessionTokenField: token}); err != nil {
		return model.NewStoreQueryError(err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*SessionRepo)(nil)
