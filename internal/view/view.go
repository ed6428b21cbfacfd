// Package view はHTMLビューのレンダリングを提供する。
//
// テンプレートはバイナリに埋め込まれ、各ページは共通レイアウト（layout.html）と
// 組み合わせて起動時に一度だけパースされる。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"github.com/hitoshi/toodeloo/internal/model"
)

//go:embed templates
var templatesFS embed.FS

const layoutFile = "layout.html"

// ビュー名
const (
	Welcome  = "welcome"
	Login    = "login"
	LoggedIn = "loggedin"
	BookList = "book/list"
	BookNew  = "book/new"
	BookEdit = "book/edit"
)

// Views は登録済みの全ビュー名。
var Views = []string{Welcome, Login, LoggedIn, BookList, BookNew, BookEdit}

// WelcomeData はウェルカムページのデータ。
type WelcomeData struct {
	Title string
	Body  string
}

// LoginData はログインページのデータ。
type LoginData struct {
	Email string
	Error string
}

// LoggedInData はログイン完了ページのデータ。
type LoggedInData struct {
	Email string
}

// BookListData は書籍一覧ページのデータ。
type BookListData struct {
	Books     []*model.Book
	UserEmail string // ログイン中ユーザーのメールアドレス
}

// BookEditData は書籍編集ページのデータ。
type BookEditData struct {
	Book *model.Book
}

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.UTC().Format("2006-01-02")
	},
}

// Renderer はビュー名からHTML文字列を生成する。並行利用に対して安全。
type Renderer struct {
	pages map[string]*template.Template
}

// New は埋め込みテンプレートからRendererを生成する。
func New() (*Renderer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, model.NewTemplateError(err)
	}
	return NewFromFS(sub, Views...)
}

// NewFromFS は指定したファイルシステムからRendererを生成する。
// 各ビューは「<ビュー名>.html」とレイアウトの組として読み込まれる。
func NewFromFS(fsys fs.FS, views ...string) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(views))
	for _, name := range views {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, layoutFile, name+".html")
		if err != nil {
			return nil, model.NewTemplateError(fmt.Errorf("failed to parse view %q: %w", name, err))
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render はビューをレンダリングしてHTML文字列を返す。
// 未登録のビュー名や実行時のテンプレートエラーはKindTemplateを返す。
func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, ok := r.pages[name]
	if !ok {
		return "", model.NewTemplateError(fmt.Errorf("unknown view %q", name))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", model.NewTemplateError(fmt.Errorf("failed to render view %q: %w", name, err))
	}
	return buf.String(), nil
}
