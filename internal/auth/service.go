// Package auth はパスワード認証、セッション管理を提供する。
package auth

import (
	"context"
	"log/slog"

	"github.com/hitoshi/toodeloo/internal/metrics"
	"github.com/hitoshi/toodeloo/internal/model"
	"github.com/hitoshi/toodeloo/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// dummyPassword はユーザー不在時の照合に使うダミーハッシュの元文字列。
const dummyPassword = "toodeloo-dummy-password"

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // ダミーハッシュ生成に使うbcryptコスト。保存済みハッシュと揃える
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User         *model.User
	SessionToken string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	sessions *SessionManager
	metrics  metrics.MetricsCollector
	config   ServiceConfig

	// verify はパスワード照合関数。照合回数を数えるテストで差し替える
	verify    func(plain, hash string) bool
	dummyHash string
}

// NewService はServiceを生成する。collectorがnilの場合は記録しない。
// ユーザー不在時の照合に使うダミーハッシュはここで生成する。
func NewService(
	userRepo repository.UserRepository,
	sessions *SessionManager,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:  userRepo,
		sessions:  sessions,
		metrics:   collector,
		config:    config,
		verify:    VerifyPassword,
		dummyHash: newDummyHash(config.BcryptCost),
	}
}

// Login はメールアドレスとパスワードを検証し、セッションを発行する。
// ユーザー不在・パスワード不一致・ユーザー検索失敗はいずれもKindInvalidCredentialsを返す。
// ユーザー不在時もダミーハッシュとの照合を行い、どちらの拒否経路もbcrypt照合1回分の時間を要する。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !model.IsKind(err, model.KindNotFound) {
			slog.Error("failed to look up user for login",
				slog.String("error", err.Error()),
			)
		}
		s.verify(password, s.dummyHash)
		s.metrics.RecordLoginFailure("invalid_credentials")
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.verify(password, user.PasswordHash) {
		s.metrics.RecordLoginFailure("invalid_credentials")
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		s.metrics.RecordLoginFailure("session_create")
		return nil, err
	}

	s.metrics.RecordLoginSuccess()
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return &LoginResult{User: user, SessionToken: token}, nil
}

// Logout はセッションを破棄する。既に削除済みのセッションでもエラーにしない。
func (s *Service) Logout(ctx context.Context, session *model.AuthenticatedSession) error {
	if err := s.sessions.DeleteSession(ctx, session.SessionToken); err != nil {
		return model.NewLogoutError(err)
	}

	slog.Info("user logged out", slog.String("user_id", session.UserID))
	return nil
}

// CurrentUser はセッションに紐づくユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// RegisterUser はパスワードをハッシュ化してユーザーを作成する。
// 管理用のユーザー作成コマンドから利用する。
func (s *Service) RegisterUser(ctx context.Context, email, password string) (*model.User, error) {
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Email: email, PasswordHash: hash}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	slog.Info("user created", slog.String("user_id", id))
	return user, nil
}

// newDummyHash は指定コストでダミーハッシュを生成する。
// 生成に失敗した場合は空文字列となり、照合は即座に失敗する。
func newDummyHash(cost int) string {
	hash, err := HashPassword(dummyPassword, cost)
	if err != nil {
		slog.Error("failed to generate dummy hash", slog.String("error", err.Error()))
		return ""
	}
	return hash
}
