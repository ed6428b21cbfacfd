package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/hitoshi/toodeloo/internal/metrics"
	"github.com/hitoshi/toodeloo/internal/model"
	"github.com/hitoshi/toodeloo/internal/repository"
)

// sessionTokenBytes はセッショントークンの乱数バイト数（256bit）。
const sessionTokenBytes = 32

// SessionManager はセッションの作成・検索・削除を行う。
// セッションレコードを変更するのはSessionManagerのみ。
type SessionManager struct {
	repo    repository.SessionRepository
	metrics metrics.MetricsCollector
}

// NewSessionManager はSessionManagerを生成する。collectorがnilの場合は記録しない。
func NewSessionManager(repo repository.SessionRepository, collector metrics.MetricsCollector) *SessionManager {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &SessionManager{repo: repo, metrics: collector}
}

// CreateSession は新しいセッショントークンを生成して永続化し、トークンを返す。
// 乱数生成・永続化の失敗、およびuserIDが識別子として不正な場合はKindSessionCreateを返す。
func (m *SessionManager) CreateSession(ctx context.Context, userID string) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", model.NewSessionCreateError(fmt.Errorf("failed to generate session token: %w", err))
	}

	if _, err := m.repo.Create(ctx, &model.Session{SessionToken: token, UserID: userID}); err != nil {
		return "", model.NewSessionCreateError(err)
	}

	m.metrics.RecordSessionCreated()
	slog.Debug("session created", slog.String("user_id", userID))
	return token, nil
}

// FindSession はトークンに一致するセッションを返す。
// 存在しない場合はKindNotFoundを返す。空トークンはストアに問い合わせずに未検出とする。
func (m *SessionManager) FindSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.NewNotFoundError("session")
	}
	return m.repo.FindByToken(ctx, token)
}

// DeleteSession はトークンに一致するセッションを削除する。冪等。
func (m *SessionManager) DeleteSession(ctx context.Context, token string) error {
	if err := m.repo.DeleteByToken(ctx, token); err != nil {
		return err
	}
	m.metrics.RecordSessionDeleted()
	return nil
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する。
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
