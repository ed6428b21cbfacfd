package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/toodeloo/internal/book"
	"github.com/hitoshi/toodeloo/internal/middleware"
	"github.com/hitoshi/toodeloo/internal/model"
	"github.com/hitoshi/toodeloo/internal/view"
)

// BookServiceInterface は書籍ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	List(ctx context.Context) ([]*model.Book, error)
	Get(ctx context.Context, id string) (*model.Book, error)
	Create(ctx context.Context, input model.BookInput) (*model.Book, error)
	Update(ctx context.Context, id string, input model.BookInput) error
	Delete(ctx context.Context, id string) error
}

// CurrentUserFinder はセッションの所有ユーザーを取得するインターフェース。
// auth.Serviceが実装する。
type CurrentUserFinder interface {
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// BookHandler は書籍管理のHTTPハンドラー。
// 作成・更新・削除の成功時は書籍一覧を描画して返す。
type BookHandler struct {
	service  BookServiceInterface
	users    CurrentUserFinder
	renderer ViewRenderer
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface, users CurrentUserFinder, renderer ViewRenderer) *BookHandler {
	return &BookHandler{
		service:  service,
		users:    users,
		renderer: renderer,
	}
}

// List は書籍一覧を表示する。
// GET /books, GET /books/list
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r)
}

// NewForm は書籍登録フォームを表示する。
// GET /books/new
func (h *BookHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	writeView(w, r, h.renderer, http.StatusOK, view.BookNew, nil)
}

// Create は書籍を登録する。
// POST /books/new
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := parseBookForm(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if _, err := h.service.Create(r.Context(), input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	h.renderList(w, r)
}

// EditForm は書籍編集フォームを現在の値で表示する。
// GET /books/edit/{id}
func (h *BookHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	writeView(w, r, h.renderer, http.StatusOK, view.BookEdit, view.BookEditData{Book: b})
}

// Update は書籍を更新する。
// POST /books/edit/{id}
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, err := parseBookForm(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	h.renderList(w, r)
}

// Delete は書籍を削除する。
// GET /books/delete/{id}
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	h.renderList(w, r)
}

// renderList はログイン中ユーザーのメールアドレスとともに書籍一覧を描画する。
func (h *BookHandler) renderList(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	books, err := h.service.List(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	writeView(w, r, h.renderer, http.StatusOK, view.BookList, view.BookListData{
		Books:     books,
		UserEmail: user.Email,
	})
}

// currentUser はセッションの所有ユーザーを返す。
// ユーザーが存在しなくなったセッションはセッションなしとして扱う。
func (h *BookHandler) currentUser(r *http.Request) (*model.User, error) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		return nil, model.NewNoSessionFoundError()
	}

	user, err := h.users.CurrentUser(r.Context(), userID)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) || model.IsKind(err, model.KindInvalidID) {
			return nil, model.NewNoSessionFoundError()
		}
		return nil, err
	}
	return user, nil
}

// parseBookForm はリクエストボディのフォームを書籍入力に変換する。
func parseBookForm(r *http.Request) (model.BookInput, error) {
	if err := r.ParseForm(); err != nil {
		return model.BookInput{}, model.NewMalformedRequestBodyError("form", err)
	}
	return book.ParseForm(r.PostForm)
}
