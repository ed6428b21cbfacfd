// Package book は書籍カタログの業務ロジックを提供する。
package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/toodeloo/internal/model"
	"github.com/hitoshi/toodeloo/internal/repository"
	"github.com/hitoshi/toodeloo/internal/security"
)

// フォームフィールド名
const (
	FormName     = "name"
	FormAuthor   = "author"
	FormLanguage = "language"
	FormPages    = "pages"
)

// maxFieldLength は文字列フィールドの最大文字数。
const maxFieldLength = 256

var (
	errNameRequired  = errors.New("name is required")
	errFieldTooLong  = errors.New("field is too long")
	errPagesNegative = errors.New("page count must not be negative")
)

// ParseForm はフォーム値からBookInputを組み立てる。
// ページ数が整数でない、または負の場合はKindMalformedRequestBodyを返す。
func ParseForm(form url.Values) (model.BookInput, error) {
	pagesRaw := strings.TrimSpace(form.Get(FormPages))
	pages, err := strconv.Atoi(pagesRaw)
	if err != nil {
		return model.BookInput{}, model.NewMalformedRequestBodyError(FormPages, err)
	}
	if pages < 0 {
		return model.BookInput{}, model.NewMalformedRequestBodyError(FormPages, errPagesNegative)
	}

	return model.BookInput{
		Name:      form.Get(FormName),
		Author:    form.Get(FormAuthor),
		Language:  form.Get(FormLanguage),
		PageCount: pages,
	}, nil
}

// Service は書籍に関するビジネスロジックを提供する。
type Service struct {
	repo      repository.BookRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.BookRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は全書籍を返す。
func (s *Service) List(ctx context.Context) ([]*model.Book, error) {
	return s.repo.List(ctx)
}

// Get は指定IDの書籍を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Book, error) {
	return s.repo.FindByID(ctx, id)
}

// Create は入力を検証・サニタイズして書籍を登録する。登録日時は現在のUTC時刻。
func (s *Service) Create(ctx context.Context, input model.BookInput) (*model.Book, error) {
	input, err := s.clean(input)
	if err != nil {
		return nil, err
	}

	book := &model.Book{
		Name:      input.Name,
		Author:    input.Author,
		Language:  input.Language,
		PageCount: input.PageCount,
		AddedAt:   s.now().UTC(),
	}
	id, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	book.ID = id

	slog.Info("book created", slog.String("book_id", id))
	return book, nil
}

// Update は入力を検証・サニタイズして書籍を更新する。
func (s *Service) Update(ctx context.Context, id string, input model.BookInput) error {
	if _, err := repository.ParseID(id); err != nil {
		return err
	}
	input, err := s.clean(input)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, input); err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	slog.Info("book updated", slog.String("book_id", id))
	return nil
}

// Delete は指定IDの書籍を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	slog.Info("book deleted", slog.String("book_id", id))
	return nil
}

// clean は文字列フィールドをプレーンテキスト化し、必須・長さ・範囲を検証する。
func (s *Service) clean(input model.BookInput) (model.BookInput, error) {
	input.Name = s.sanitizer.Sanitize(input.Name)
	input.Author = s.sanitizer.Sanitize(input.Author)
	input.Language = s.sanitizer.Sanitize(input.Language)

	if input.Name == "" {
		return input, model.NewMalformedRequestBodyError(FormName, errNameRequired)
	}
	fields := []struct {
		name  string
		value string
	}{
		{FormName, input.Name},
		{FormAuthor, input.Author},
		{FormLanguage, input.Language},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > maxFieldLength {
			return input, model.NewMalformedRequestBodyError(f.name, errFieldTooLong)
		}
	}
	if input.PageCount < 0 {
		return input, model.NewMalformedRequestBodyError(FormPages, errPagesNegative)
	}
	return input, nil
}
